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

package source

import (
	"fmt"
	"math"

	"github.com/vmware/vmware-go-bsl/sourcelibrary/coder"
	"github.com/vmware/vmware-go-bsl/sourcelibrary/tracker"
)

// SliceSource is an in-memory BoundedSource over a slice of values. Values
// are encoded once at construction; reads decode lazily, so every pass
// observes its own fresh copies and passes share no mutable state. The sum
// of the encoded lengths is the source's size estimate.
type SliceSource struct {
	encoded   [][]byte
	coder     coder.Coder
	totalSize int64
}

// NewSliceSource builds a source from values, encoding each with c. A nil
// coder selects coder.Default. Values that fail to encode fail construction.
func NewSliceSource(values []interface{}, c coder.Coder) (*SliceSource, error) {
	if c == nil {
		c = coder.Default
	}

	encoded := make([][]byte, len(values))
	var total int64
	for i, v := range values {
		data, err := c.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encoding record %d with %s coder: %w", i, c.Name(), err)
		}
		encoded[i] = data
		total += int64(len(data))
	}

	return &SliceSource{encoded: encoded, coder: c, totalSize: total}, nil
}

func (s *SliceSource) Count() int64 {
	return int64(len(s.encoded))
}

func (s *SliceSource) TotalSize() int64 {
	return s.totalSize
}

// Split partitions the source into contiguous ranges of
// max(1, round(desiredBundleSize/averageRecordSize)) records each. The final
// split absorbs a remainder smaller than a quarter stride, so splits are
// uneven by at most one bundle's worth at the tail. Degenerate inputs
// collapse to a single split covering the whole source; an empty source
// still yields that one (zero width) split.
func (s *SliceSource) Split(desiredBundleSize int64) []SourceSplit {
	count := s.Count()
	if count < 2 || s.totalSize == 0 || desiredBundleSize >= s.totalSize {
		return []SourceSplit{{Source: s, Start: 0, Stop: count}}
	}

	averageRecordSize := float64(s.totalSize) / float64(count)
	recordsPerSplit := int64(math.Round(float64(desiredBundleSize) / averageRecordSize))
	if recordsPerSplit < 1 {
		recordsPerSplit = 1
	}

	var splits []SourceSplit
	for start := int64(0); start < count; {
		stop := start + recordsPerSplit
		if stop > count {
			stop = count
		}
		if remaining := count - stop; remaining > 0 && remaining*4 < recordsPerSplit {
			stop = count
		}
		splits = append(splits, SourceSplit{Source: s, Start: start, Stop: stop})
		start = stop
	}
	return splits
}

func (s *SliceSource) GetRangeTracker(start, stop int64) tracker.RangeTracker {
	if start < 0 {
		start = 0
	}
	if stop < 0 || stop == tracker.PositionInfinity {
		stop = s.Count()
	}
	return tracker.NewOffsetRangeTracker(start, stop)
}

func (s *SliceSource) Read(t tracker.RangeTracker) RecordReader {
	return &sliceReader{src: s, tracker: t, pos: t.StartPosition()}
}

type sliceReader struct {
	src     *SliceSource
	tracker tracker.RangeTracker
	pos     int64
	rec     *Record
	err     error
	stopped bool
}

func (r *sliceReader) Next() bool {
	if r.stopped {
		return false
	}
	if r.pos >= r.src.Count() || !r.tracker.TryClaim(r.pos) {
		r.stopped = true
		return false
	}

	var value interface{}
	if err := r.src.coder.Unmarshal(r.src.encoded[r.pos], &value); err != nil {
		r.stopped = true
		r.err = fmt.Errorf("decoding record %d: %w", r.pos, err)
		return false
	}

	r.rec = &Record{Position: r.pos, Value: value, Size: int64(len(r.src.encoded[r.pos]))}
	r.pos++
	return true
}

func (r *sliceReader) Record() *Record {
	return r.rec
}

func (r *sliceReader) Err() error {
	return r.err
}
