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

// Package tracker coordinates a single read pass over a half-open position
// range. The tracker is the only arbiter between the reader claiming
// positions and a scheduler trying to shrink the range mid-read: every
// position is either produced by the current reader or handed off in a
// residual range, never both and never neither.
package tracker

import "math"

// PositionInfinity is the stop position of a range whose true end is not yet
// known. A tracker with an infinite stop refuses splits and reports its
// remaining work as unknown.
const PositionInfinity int64 = math.MaxInt64

// Range is a half-open interval [Start, Stop) of record positions.
type Range struct {
	Start int64
	Stop  int64
}

// Width returns the number of positions covered by the range.
func (r Range) Width() int64 {
	if r.Stop == PositionInfinity {
		return PositionInfinity
	}
	return r.Stop - r.Start
}

// SplitPoints reports claimed and outstanding split points for a range.
// Remaining is only meaningful when RemainingKnown is true; an open-ended
// range cannot count its remainder.
type SplitPoints struct {
	Consumed       int64
	Remaining      int64
	RemainingKnown bool
}

// RangeTracker manages the consumed position and the concurrent shrink point
// of one read pass over a range. Implementations must be safe for use by a
// reader goroutine and a splitter goroutine at the same time.
//
// Claims must arrive in strictly increasing order at or above the range
// start; violating that is a programming error and panics. All other
// unsatisfiable requests are clean boolean rejections that leave the tracker
// unchanged.
type RangeTracker interface {
	// TryClaim attempts to advance the cursor to position. It returns false,
	// without any state change, once position falls at or beyond the current
	// stop; the reader must then end its pass.
	TryClaim(position int64) bool

	// TrySplitAtPosition attempts to shrink the range to end at splitPosition
	// and returns the residual range that was cut off.
	TrySplitAtPosition(splitPosition int64) (Range, bool)

	// TrySplitAtFraction maps a fraction of the current range to a position
	// and delegates to TrySplitAtPosition. Fractions outside (0, 1) are
	// rejected.
	TrySplitAtFraction(fraction float64) (Range, bool)

	// FractionConsumed reports progress through the current range in [0, 1].
	FractionConsumed() float64

	// SplitPoints reports how many split points were claimed and how many
	// remain ahead of the cursor.
	SplitPoints() SplitPoints

	StartPosition() int64
	StopPosition() int64

	// LastClaimed returns the highest claimed position. ok is false before
	// the first claim.
	LastClaimed() (position int64, ok bool)

	// IsDone reports whether the reader has observed the range boundary.
	// A done tracker rejects every further split.
	IsDone() bool
}
