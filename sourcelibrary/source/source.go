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

// Package source defines bounded, position-addressed data sets that can be
// partitioned for parallel consumption, together with the in-memory slice
// implementation. A source is an immutable description of data; all read
// state lives in the tracker driving a pass.
package source

import "github.com/vmware/vmware-go-bsl/sourcelibrary/tracker"

// Record is an opaque decoded value at a dense position of a bounded source.
// Size is the encoded length in bytes, before decoding.
type Record struct {
	Position int64
	Value    interface{}
	Size     int64
}

// RecordReader is the cursor over one read pass. Readers are not
// restartable; start another pass with Read and a fresh tracker.
type RecordReader interface {
	// Next claims the next position and decodes its record. It returns false
	// when the pass ends, either because the range is exhausted, a
	// concurrent split moved the boundary, or decoding failed.
	Next() bool

	// Record returns the record produced by the latest successful Next.
	Record() *Record

	// Err returns the error that ended the pass. A pass ended by a rejected
	// claim is a clean stop and returns nil.
	Err() error
}

// SourceSplit is a contiguous part of a parent source, expressed in the
// parent's position space. Splits reference the parent's data; they never
// copy it.
type SourceSplit struct {
	Source BoundedSource
	Start  int64
	Stop   int64
}

// BoundedSource is a finite, immutable, position-addressed data set. All
// methods are safe for concurrent use: a source value carries no read state.
type BoundedSource interface {
	// Count returns the number of records.
	Count() int64

	// TotalSize returns the estimated encoded size of all records in bytes.
	TotalSize() int64

	// Split statically partitions the source into contiguous splits of
	// roughly desiredBundleSize bytes each. The result is never empty and
	// covers the whole source without gaps or overlaps.
	Split(desiredBundleSize int64) []SourceSplit

	// GetRangeTracker creates a tracker for one read pass over
	// [start, stop). A negative start resolves to the source's first
	// position; a negative stop or tracker.PositionInfinity resolves to the
	// logical end of the data.
	GetRangeTracker(start, stop int64) tracker.RangeTracker

	// Read starts a read pass driven by t. Every position is claimed through
	// the tracker before its record is surfaced, so a pass cooperates with
	// concurrent splitting.
	Read(t tracker.RangeTracker) RecordReader
}
