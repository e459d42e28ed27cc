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

// Package interfaces holds the contracts between the worker and the
// application's record processing code.
package interfaces

import (
	"time"

	"github.com/vmware/vmware-go-bsl/sourcelibrary/source"
	"github.com/vmware/vmware-go-bsl/sourcelibrary/tracker"
)

type (
	// InitializationInput is passed to IRecordProcessor.Initialize before any
	// records of a bundle are delivered.
	InitializationInput struct {
		BundleID      string
		StartPosition int64
		StopPosition  int64
	}

	// ProcessRecordsInput carries one batch of records read from a bundle.
	// CacheEntryTime and CacheExitTime bracket the time the batch spent
	// buffered inside the library before delivery.
	ProcessRecordsInput struct {
		CacheEntryTime *time.Time
		CacheExitTime  *time.Time
		Records        []*source.Record
		Progress       IProgressReporter
	}

	// ShutdownInput is passed to IRecordProcessor.Shutdown when the worker is
	// done with a processor instance.
	ShutdownInput struct {
		ShutdownReason ShutdownReason
	}
)

// IRecordProcessor is the interface for processing the records of one
// bundle. A new processor instance is created per bundle pass, so
// implementations need no internal synchronization against other bundles.
type IRecordProcessor interface {
	// Initialize is invoked once before any records are delivered.
	Initialize(initializationInput *InitializationInput)

	// ProcessRecords processes one batch of records. The input's Progress
	// reporter answers how far through the bundle the reader is; heavy
	// processors can use it to pace themselves.
	ProcessRecords(processRecordsInput *ProcessRecordsInput)

	// Shutdown is invoked once per processor instance. The reason tells the
	// processor whether the bundle finished, failed, or the worker is
	// stopping.
	Shutdown(shutdownInput *ShutdownInput)
}

// IRecordProcessorFactory creates a processor per bundle pass.
type IRecordProcessorFactory interface {
	CreateProcessor() IRecordProcessor
}

// IProgressReporter answers progress queries for the bundle currently being
// read. Range trackers satisfy it.
type IProgressReporter interface {
	FractionConsumed() float64
	SplitPoints() tracker.SplitPoints
}

// ShutdownReason is why a record processor is being shut down.
type ShutdownReason int

const (
	// REQUESTED means the worker is shutting down with the bundle
	// unfinished.
	REQUESTED ShutdownReason = iota + 1
	// TERMINATE means the bundle's range was read to the end.
	TERMINATE
	// ABORTED means the read pass failed. The bundle will be retried with a
	// fresh processor instance.
	ABORTED
)

var shutdownReasonMap = map[ShutdownReason]string{
	REQUESTED: "REQUESTED",
	TERMINATE: "TERMINATE",
	ABORTED:   "ABORTED",
}

// ShutdownReasonMessage returns the printable name of reason.
func ShutdownReasonMessage(reason ShutdownReason) string {
	return shutdownReasonMap[reason]
}
