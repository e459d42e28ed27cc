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

// Package partition tracks the bundles a bounded source has been split into
// and their assignment state inside a worker.
package partition

import (
	"sync"

	"github.com/vmware/vmware-go-bsl/sourcelibrary/tracker"
)

// BundleStatus is the worker's bookkeeping entry for one bundle. The Stop
// bound shrinks when a dynamic split cuts the bundle short; the cut off
// remainder becomes a new bundle pointing back via ParentBundleID.
type BundleStatus struct {
	ID             string
	ParentBundleID string
	Start          int64
	Stop           int64
	AssignedTo     string
	Attempts       int
	Completed      bool
	Failed         bool
	Mux            *sync.RWMutex

	// rangeTracker is the tracker of the pass currently consuming the
	// bundle, nil between passes.
	rangeTracker tracker.RangeTracker
}

// NewBundleStatus creates a bundle covering [start, stop).
func NewBundleStatus(id, parentID string, start, stop int64) *BundleStatus {
	return &BundleStatus{
		ID:             id,
		ParentBundleID: parentID,
		Start:          start,
		Stop:           stop,
		Mux:            &sync.RWMutex{},
	}
}

func (b *BundleStatus) GetAssignedTo() string {
	b.Mux.RLock()
	defer b.Mux.RUnlock()
	return b.AssignedTo
}

func (b *BundleStatus) SetAssignedTo(workerID string) {
	b.Mux.Lock()
	defer b.Mux.Unlock()
	b.AssignedTo = workerID
}

func (b *BundleStatus) GetStop() int64 {
	b.Mux.RLock()
	defer b.Mux.RUnlock()
	return b.Stop
}

// CompareAndSplit commits a dynamic split: it splits the consuming pass's
// tracker at the given fraction and shrinks the bundle to the residual's
// start, both under the bundle lock, but only while rt is still the tracker
// of the consuming pass. A refused proposal leaves the tracker untouched.
// Holding the lock across both steps means a pass cannot finish between the
// tracker shrink and the bundle update, so the cut off remainder is never
// stranded on a bundle already recorded as complete.
func (b *BundleStatus) CompareAndSplit(rt tracker.RangeTracker, fraction float64) (tracker.Range, bool) {
	b.Mux.Lock()
	defer b.Mux.Unlock()
	if b.rangeTracker == nil || b.rangeTracker != rt {
		return tracker.Range{}, false
	}
	residual, ok := rt.TrySplitAtFraction(fraction)
	if !ok {
		return tracker.Range{}, false
	}
	b.Stop = residual.Start
	return residual, true
}

// Range returns the bundle's current bounds.
func (b *BundleStatus) Range() tracker.Range {
	b.Mux.RLock()
	defer b.Mux.RUnlock()
	return tracker.Range{Start: b.Start, Stop: b.Stop}
}

func (b *BundleStatus) GetTracker() tracker.RangeTracker {
	b.Mux.RLock()
	defer b.Mux.RUnlock()
	return b.rangeTracker
}

func (b *BundleStatus) SetTracker(rt tracker.RangeTracker) {
	b.Mux.Lock()
	defer b.Mux.Unlock()
	b.rangeTracker = rt
}

func (b *BundleStatus) IsCompleted() bool {
	b.Mux.RLock()
	defer b.Mux.RUnlock()
	return b.Completed
}

func (b *BundleStatus) SetCompleted(completed bool) {
	b.Mux.Lock()
	defer b.Mux.Unlock()
	b.Completed = completed
}

func (b *BundleStatus) IsFailed() bool {
	b.Mux.RLock()
	defer b.Mux.RUnlock()
	return b.Failed
}

func (b *BundleStatus) SetFailed(failed bool) {
	b.Mux.Lock()
	defer b.Mux.Unlock()
	b.Failed = failed
}

// IncrAttempts bumps the pass counter and returns the new value.
func (b *BundleStatus) IncrAttempts() int {
	b.Mux.Lock()
	defer b.Mux.Unlock()
	b.Attempts++
	return b.Attempts
}
