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

package config

import (
	log "github.com/sirupsen/logrus"

	"github.com/vmware/vmware-go-bsl/logger"
	"github.com/vmware/vmware-go-bsl/sourcelibrary/metrics"
	"github.com/vmware/vmware-go-bsl/sourcelibrary/utils"
)

// NewSourceClientLibConfig creates a configuration with default values. An
// empty workerID is replaced with a generated UUID.
func NewSourceClientLibConfig(applicationName, workerID string) *SourceClientLibConfiguration {
	checkIsValueNotEmpty("ApplicationName", applicationName)

	if empty(workerID) {
		workerID = utils.MustNewUUID()
	}

	return &SourceClientLibConfiguration{
		ApplicationName:        applicationName,
		WorkerID:               workerID,
		DesiredBundleSizeBytes: DefaultDesiredBundleSizeBytes,
		MaxConcurrentBundles:   DefaultMaxConcurrentBundles,
		MaxRecordsPerBatch:     DefaultMaxRecordsPerBatch,
		EnableDynamicSplitting: true,
		RebalanceRateLimit:     DefaultRebalanceRateLimit,
		DispatchIntervalMillis: DefaultDispatchIntervalMillis,
		TaskBackoffTimeMillis:  DefaultTaskBackoffTimeMillis,
		MaxBundleRetries:       DefaultMaxBundleRetries,
		Logger:                 logger.GetDefaultLogger(),
	}
}

// WithDesiredBundleSizeBytes sets the target encoded size per bundle.
func (c *SourceClientLibConfiguration) WithDesiredBundleSizeBytes(size int64) *SourceClientLibConfiguration {
	checkIsValuePositive("DesiredBundleSizeBytes", size)
	c.DesiredBundleSizeBytes = size
	return c
}

// WithMaxConcurrentBundles sets the number of bundles consumed concurrently.
func (c *SourceClientLibConfiguration) WithMaxConcurrentBundles(n int) *SourceClientLibConfiguration {
	checkIsValuePositive("MaxConcurrentBundles", int64(n))
	c.MaxConcurrentBundles = n
	return c
}

// WithMaxRecordsPerBatch sets the largest batch delivered per ProcessRecords
// call.
func (c *SourceClientLibConfiguration) WithMaxRecordsPerBatch(n int) *SourceClientLibConfiguration {
	checkIsValuePositive("MaxRecordsPerBatch", int64(n))
	c.MaxRecordsPerBatch = n
	return c
}

// WithDynamicSplitting enables or disables rebalancing splits of in-flight
// bundles.
func (c *SourceClientLibConfiguration) WithDynamicSplitting(enabled bool) *SourceClientLibConfiguration {
	c.EnableDynamicSplitting = enabled
	return c
}

// WithRebalanceRateLimit caps dynamic split proposals per second. Zero
// disables the cap.
func (c *SourceClientLibConfiguration) WithRebalanceRateLimit(perSecond float64) *SourceClientLibConfiguration {
	if perSecond < 0 {
		// There is no point to continue for incorrect configuration. Fail fast!
		log.Panicf("Non-negative value expected for RebalanceRateLimit, actual: %v", perSecond)
	}
	c.RebalanceRateLimit = perSecond
	return c
}

// WithDispatchIntervalMillis sets the worker event loop cadence.
func (c *SourceClientLibConfiguration) WithDispatchIntervalMillis(millis int) *SourceClientLibConfiguration {
	checkIsValuePositive("DispatchIntervalMillis", int64(millis))
	c.DispatchIntervalMillis = millis
	return c
}

// WithTaskBackoffTimeMillis sets the base backoff between bundle pass retries.
func (c *SourceClientLibConfiguration) WithTaskBackoffTimeMillis(millis int) *SourceClientLibConfiguration {
	checkIsValuePositive("TaskBackoffTimeMillis", int64(millis))
	c.TaskBackoffTimeMillis = millis
	return c
}

// WithMaxBundleRetries sets the number of passes attempted per bundle.
func (c *SourceClientLibConfiguration) WithMaxBundleRetries(n int) *SourceClientLibConfiguration {
	checkIsValuePositive("MaxBundleRetries", int64(n))
	c.MaxBundleRetries = n
	return c
}

// WithLogger sets the logger.
func (c *SourceClientLibConfiguration) WithLogger(log logger.Logger) *SourceClientLibConfiguration {
	if log == nil {
		panic("logger cannot be null")
	}
	c.Logger = log
	return c
}

// WithMonitoringService sets the monitoring service.
func (c *SourceClientLibConfiguration) WithMonitoringService(mService metrics.MonitoringService) *SourceClientLibConfiguration {
	// Nil case is handled downstream.
	c.MonitoringService = mService
	return c
}

func empty(s string) bool {
	return len(s) == 0
}

func checkIsValueNotEmpty(key string, value string) {
	if empty(value) {
		// There is no point to continue for incorrect configuration. Fail fast!
		log.Panicf("Non-empty value expected for %v, actual: %v", key, value)
	}
}

func checkIsValuePositive(key string, value int64) {
	if value <= 0 {
		// There is no point to continue for incorrect configuration. Fail fast!
		log.Panicf("Positive value expected for %v, actual: %v", key, value)
	}
}
