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

package tracker

import (
	"fmt"
	"math"
	"sync"
)

// OffsetRangeTracker is the RangeTracker for dense integer positions.
//
// One mutex serializes claims against splits, which makes the contention
// rules exact: a split request at or behind the last claimed position loses,
// and a claim that reaches a shrunk stop latches the tracker done so no
// further split can land behind a reader that has already stopped.
type OffsetRangeTracker struct {
	start int64
	stop  int64

	// lastClaimed is -1 until the first claim. Positions are never negative,
	// which NewOffsetRangeTracker enforces on the range start.
	lastClaimed     int64
	splitPointsSeen int64
	done            bool
	mux             sync.Mutex
}

// NewOffsetRangeTracker creates a tracker for one read pass over
// [start, stop). The bounds are a programming contract: start must be
// non-negative and must not exceed stop. Use PositionInfinity as the stop of
// an open-ended range.
func NewOffsetRangeTracker(start, stop int64) *OffsetRangeTracker {
	if start < 0 {
		panic(fmt.Sprintf("invalid range: start position %d is negative", start))
	}
	if stop < start {
		panic(fmt.Sprintf("invalid range: stop position %d is before start position %d", stop, start))
	}
	return &OffsetRangeTracker{
		start:       start,
		stop:        stop,
		lastClaimed: -1,
	}
}

func (t *OffsetRangeTracker) TryClaim(position int64) bool {
	t.mux.Lock()
	defer t.mux.Unlock()

	if position < t.start {
		panic(fmt.Sprintf("cannot claim position %d before the range start %d", position, t.start))
	}
	if t.lastClaimed >= 0 && position <= t.lastClaimed {
		panic(fmt.Sprintf("cannot claim position %d after position %d: claims must be strictly increasing", position, t.lastClaimed))
	}
	if position >= t.stop {
		t.done = true
		return false
	}

	t.lastClaimed = position
	t.splitPointsSeen++
	return true
}

func (t *OffsetRangeTracker) TrySplitAtPosition(splitPosition int64) (Range, bool) {
	t.mux.Lock()
	defer t.mux.Unlock()
	return t.trySplitAtPositionLocked(splitPosition)
}

func (t *OffsetRangeTracker) trySplitAtPositionLocked(splitPosition int64) (Range, bool) {
	if t.done || t.stop == PositionInfinity {
		return Range{}, false
	}
	if splitPosition < t.start || splitPosition >= t.stop {
		return Range{}, false
	}
	if t.lastClaimed >= 0 && splitPosition <= t.lastClaimed {
		return Range{}, false
	}

	residual := Range{Start: splitPosition, Stop: t.stop}
	t.stop = splitPosition
	return residual, true
}

// TrySplitAtFraction resolves the fraction against the current stop under the
// same lock that performs the split, so a concurrent claim cannot slide in
// between the position computation and the shrink.
func (t *OffsetRangeTracker) TrySplitAtFraction(fraction float64) (Range, bool) {
	t.mux.Lock()
	defer t.mux.Unlock()

	if fraction <= 0 || fraction >= 1 {
		return Range{}, false
	}
	if t.stop == PositionInfinity {
		return Range{}, false
	}

	splitPosition := t.start + int64(math.Floor(fraction*float64(t.stop-t.start)))
	return t.trySplitAtPositionLocked(splitPosition)
}

func (t *OffsetRangeTracker) FractionConsumed() float64 {
	t.mux.Lock()
	defer t.mux.Unlock()

	if t.lastClaimed < 0 || t.stop == PositionInfinity || t.stop == t.start {
		return 0.0
	}
	fraction := float64(t.lastClaimed+1-t.start) / float64(t.stop-t.start)
	return math.Min(1.0, math.Max(0.0, fraction))
}

func (t *OffsetRangeTracker) SplitPoints() SplitPoints {
	t.mux.Lock()
	defer t.mux.Unlock()

	sp := SplitPoints{
		Consumed:       t.splitPointsSeen,
		RemainingKnown: t.stop != PositionInfinity,
	}
	if !sp.RemainingKnown {
		return sp
	}
	if t.lastClaimed < 0 {
		sp.Remaining = t.stop - t.start
	} else {
		sp.Remaining = t.stop - t.lastClaimed - 1
	}
	return sp
}

func (t *OffsetRangeTracker) StartPosition() int64 {
	return t.start
}

func (t *OffsetRangeTracker) StopPosition() int64 {
	t.mux.Lock()
	defer t.mux.Unlock()
	return t.stop
}

func (t *OffsetRangeTracker) LastClaimed() (int64, bool) {
	t.mux.Lock()
	defer t.mux.Unlock()
	if t.lastClaimed < 0 {
		return 0, false
	}
	return t.lastClaimed, true
}

// IsDone reports whether the reader has observed the range boundary. Once
// done, every split request is rejected.
func (t *OffsetRangeTracker) IsDone() bool {
	t.mux.Lock()
	defer t.mux.Unlock()
	return t.done
}
