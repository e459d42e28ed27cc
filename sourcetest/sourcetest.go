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

// Package sourcetest provides conformance checks for BoundedSource
// implementations. Applications bringing their own source run these against
// it to prove that static splitting, dynamic splitting and reentrant reads
// hold together.
package sourcetest

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/sync/errgroup"

	"github.com/vmware/vmware-go-bsl/sourcelibrary/source"
	"github.com/vmware/vmware-go-bsl/sourcelibrary/tracker"
)

// ReadFromSource drains one pass over [start, stop) with a fresh tracker and
// returns the records in order. Negative bounds resolve the same way
// BoundedSource.GetRangeTracker resolves them.
func ReadFromSource(src source.BoundedSource, start, stop int64) ([]*source.Record, error) {
	return readWithTracker(src, src.GetRangeTracker(start, stop))
}

func readWithTracker(src source.BoundedSource, rt tracker.RangeTracker) ([]*source.Record, error) {
	var records []*source.Record
	reader := src.Read(rt)
	for reader.Next() {
		records = append(records, reader.Record())
	}
	return records, reader.Err()
}

// RecordValues projects the decoded values out of records.
func RecordValues(records []*source.Record) []interface{} {
	values := make([]interface{}, 0, len(records))
	for _, r := range records {
		values = append(values, r.Value)
	}
	return values
}

// AssertSourcesEqualReferenceSource verifies that reading the splits back to
// back yields exactly the reference read over [refStart, refStop): the splits
// are contiguous, cover the whole range and their records concatenate to the
// reference records.
func AssertSourcesEqualReferenceSource(t *testing.T, ref source.BoundedSource, refStart, refStop int64, splits []source.SourceSplit) {
	expected, err := ReadFromSource(ref, refStart, refStop)
	assert.Nil(t, err)

	rt := ref.GetRangeTracker(refStart, refStop)
	var got []*source.Record
	next := rt.StartPosition()
	for i, split := range splits {
		assert.Equalf(t, next, split.Start, "split %d does not continue at position %d", i, next)
		records, err := ReadFromSource(split.Source, split.Start, split.Stop)
		assert.Nil(t, err)
		got = append(got, records...)
		next = split.Stop
	}
	assert.Equal(t, rt.StopPosition(), next)
	assert.Equal(t, RecordValues(expected), RecordValues(got))
}

// AssertReentrantReadsSucceed verifies the source can run many passes over
// the same range, sequentially and concurrently, always yielding the same
// records. Passes share the source but never a tracker.
func AssertReentrantReadsSucceed(t *testing.T, src source.BoundedSource, start, stop int64) {
	first, err := ReadFromSource(src, start, stop)
	assert.Nil(t, err)
	second, err := ReadFromSource(src, start, stop)
	assert.Nil(t, err)
	assert.Equal(t, RecordValues(first), RecordValues(second))

	results := make([][]*source.Record, 4)
	var group errgroup.Group
	for i := range results {
		i := i
		group.Go(func() error {
			records, err := ReadFromSource(src, start, stop)
			results[i] = records
			return err
		})
	}
	assert.Nil(t, group.Wait())
	for _, records := range results {
		assert.Equal(t, RecordValues(first), RecordValues(records))
	}
}

// AssertSplitAtFractionExhaustive walks every combination of records consumed
// before the split and a dense fraction grid, verifying that an accepted
// split conserves the reference records and a rejected one leaves the pass
// untouched. With multiThreaded it additionally races a full read against a
// split at every fraction of the grid.
func AssertSplitAtFractionExhaustive(t *testing.T, src source.BoundedSource, multiThreaded bool) {
	expected, err := ReadFromSource(src, -1, -1)
	assert.Nil(t, err)

	n := src.Count()
	accepted := 0
	for consumed := int64(0); consumed <= n; consumed++ {
		for i := int64(1); i < 2*n; i++ {
			fraction := float64(i) / float64(2*n)
			if assertSplitAtFraction(t, src, expected, consumed, fraction) {
				accepted++
			}
		}
	}
	// A source that rejects the whole grid cannot be rebalanced at all.
	if n > 1 {
		assert.NotZero(t, accepted)
	}

	if multiThreaded {
		for i := int64(1); i < 2*n; i++ {
			assertSplitAtFractionConcurrent(t, src, expected, float64(i)/float64(2*n))
		}
	}
}

// assertSplitAtFraction reads consumed records, proposes a split at fraction
// and checks the outcome against the arithmetic of the range. It reports
// whether the split was accepted.
func assertSplitAtFraction(t *testing.T, src source.BoundedSource, expected []*source.Record, consumed int64, fraction float64) bool {
	rt := src.GetRangeTracker(-1, -1)
	reader := src.Read(rt)

	var primary []*source.Record
	for int64(len(primary)) < consumed {
		if !assert.Truef(t, reader.Next(), "could not consume %d records before splitting", consumed) {
			return false
		}
		primary = append(primary, reader.Record())
	}

	n := src.Count()
	position := int64(math.Floor(fraction * float64(n)))
	expectAccept := position >= consumed && position < n

	residual, ok := rt.TrySplitAtFraction(fraction)
	assert.Equalf(t, expectAccept, ok, "split at fraction %v after %d of %d records", fraction, consumed, n)
	if ok {
		assert.Equal(t, position, residual.Start)
		assert.Equal(t, n, residual.Stop)
	}

	// Drain whatever the primary still covers.
	for reader.Next() {
		primary = append(primary, reader.Record())
	}
	assert.Nil(t, reader.Err())

	combined := append([]*source.Record{}, primary...)
	if ok {
		rest, err := ReadFromSource(src, residual.Start, residual.Stop)
		assert.Nil(t, err)
		combined = append(combined, rest...)
	}
	assert.Equal(t, RecordValues(expected), RecordValues(combined))
	return ok
}

// assertSplitAtFractionConcurrent races a full read against one split
// proposal. Whatever interleaving happens, the primary pass plus the residual
// range must reconstitute the reference records.
func assertSplitAtFractionConcurrent(t *testing.T, src source.BoundedSource, expected []*source.Record, fraction float64) {
	rt := src.GetRangeTracker(-1, -1)

	var primary []*source.Record
	var group errgroup.Group
	group.Go(func() error {
		reader := src.Read(rt)
		for reader.Next() {
			primary = append(primary, reader.Record())
		}
		return reader.Err()
	})

	residual, ok := rt.TrySplitAtFraction(fraction)
	assert.Nil(t, group.Wait())

	combined := append([]*source.Record{}, primary...)
	if ok {
		rest, err := ReadFromSource(src, residual.Start, residual.Stop)
		assert.Nil(t, err)
		combined = append(combined, rest...)
	}
	assert.Equal(t, RecordValues(expected), RecordValues(combined))
}
