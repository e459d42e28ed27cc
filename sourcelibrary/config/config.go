/*
 * Copyright (c) 2019 VMware, Inc.
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy of this software and
 * associated documentation files (the "Software"), to deal in the Software without restriction, including
 * without limitation the rights to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is furnished to do
 * so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all copies or substantial
 * portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR IMPLIED, INCLUDING BUT
 * NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY, FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT.
 * IN NO EVENT SHALL THE AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY,
 * WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN CONNECTION WITH THE
 * SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.
 */

// Package config holds the tunables of the bounded source worker.
package config

import (
	"github.com/vmware/vmware-go-bsl/logger"
	"github.com/vmware/vmware-go-bsl/sourcelibrary/metrics"
)

const (
	// DefaultDesiredBundleSizeBytes is the target encoded size of one bundle
	// produced by the static split.
	DefaultDesiredBundleSizeBytes = 64 * 1024

	// DefaultMaxConcurrentBundles is the number of bundles a worker consumes
	// at the same time.
	DefaultMaxConcurrentBundles = 4

	// DefaultMaxRecordsPerBatch is the largest batch handed to a record
	// processor in one ProcessRecords call.
	DefaultMaxRecordsPerBatch = 10000

	// DefaultDispatchIntervalMillis is the cadence of the worker event loop
	// that dispatches pending bundles and proposes rebalancing splits.
	DefaultDispatchIntervalMillis = 100

	// DefaultRebalanceRateLimit caps dynamic split proposals per second.
	DefaultRebalanceRateLimit = 10.0

	// DefaultTaskBackoffTimeMillis is the base backoff between retries of a
	// failed bundle pass.
	DefaultTaskBackoffTimeMillis = 500

	// DefaultMaxBundleRetries is the number of passes attempted per bundle
	// before giving up.
	DefaultMaxBundleRetries = 3
)

// SourceClientLibConfiguration holds the configuration of a bounded source
// worker.
type SourceClientLibConfiguration struct {
	// ApplicationName identifies the consuming application. It is also used
	// as the metrics namespace.
	ApplicationName string

	// WorkerID distinguishes workers sharing one source. Defaults to a UUID.
	WorkerID string

	// DesiredBundleSizeBytes is the target encoded size per bundle for the
	// static split.
	DesiredBundleSizeBytes int64

	// MaxConcurrentBundles caps how many bundles are consumed concurrently.
	MaxConcurrentBundles int

	// MaxRecordsPerBatch caps the batch size delivered to record processors.
	MaxRecordsPerBatch int

	// EnableDynamicSplitting lets the worker shrink in-flight bundles and
	// schedule the cut off remainders when capacity goes idle.
	EnableDynamicSplitting bool

	// RebalanceRateLimit caps dynamic split proposals per second. Zero
	// disables the cap.
	RebalanceRateLimit float64

	// DispatchIntervalMillis is the worker event loop cadence.
	DispatchIntervalMillis int

	// TaskBackoffTimeMillis is the base backoff between bundle pass retries.
	// The backoff grows exponentially with the attempt number.
	TaskBackoffTimeMillis int

	// MaxBundleRetries is the number of passes attempted per bundle before
	// the worker gives up on it.
	MaxBundleRetries int

	// Logger receives the library's log output.
	Logger logger.Logger

	// MonitoringService publishes per-bundle metrics. Nil means no metrics.
	MonitoringService metrics.MonitoringService
}
