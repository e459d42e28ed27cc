package partition

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vmware/vmware-go-bsl/sourcelibrary/tracker"
)

func TestBundleStatus(t *testing.T) {
	b := NewBundleStatus("bundle-0001", "bundle-0000", 5, 10)

	assert.Equal(t, "bundle-0001", b.ID)
	assert.Equal(t, "bundle-0000", b.ParentBundleID)
	assert.Equal(t, tracker.Range{Start: 5, Stop: 10}, b.Range())
	assert.Empty(t, b.GetAssignedTo())
	assert.False(t, b.IsCompleted())
	assert.False(t, b.IsFailed())
	assert.Nil(t, b.GetTracker())

	b.SetAssignedTo("worker-1")
	assert.Equal(t, "worker-1", b.GetAssignedTo())

	assert.Equal(t, 1, b.IncrAttempts())
	assert.Equal(t, 2, b.IncrAttempts())

	b.SetCompleted(true)
	assert.True(t, b.IsCompleted())
	b.SetFailed(true)
	assert.True(t, b.IsFailed())
}

func TestCompareAndSplit(t *testing.T) {
	b := NewBundleStatus("bundle-0000", "", 0, 10)
	rt := tracker.NewOffsetRangeTracker(0, 10)
	other := tracker.NewOffsetRangeTracker(0, 10)
	rt.TryClaim(0)
	rt.TryClaim(1)

	// No active pass. The refused proposal must not shrink the tracker.
	_, ok := b.CompareAndSplit(rt, 0.5)
	assert.False(t, ok)
	assert.Equal(t, int64(10), b.GetStop())
	assert.Equal(t, int64(10), rt.StopPosition())

	// A proposal against a tracker from another pass loses.
	b.SetTracker(rt)
	_, ok = b.CompareAndSplit(other, 0.5)
	assert.False(t, ok)
	assert.Equal(t, int64(10), b.GetStop())
	assert.Equal(t, int64(10), other.StopPosition())

	// Live pass: the tracker and the bundle shrink together.
	residual, ok := b.CompareAndSplit(rt, 0.5)
	assert.True(t, ok)
	assert.Equal(t, tracker.Range{Start: 5, Stop: 10}, residual)
	assert.Equal(t, int64(5), b.GetStop())
	assert.Equal(t, int64(5), rt.StopPosition())

	// The fraction resolves behind the cursor: clean rejection.
	_, ok = b.CompareAndSplit(rt, 0.2)
	assert.False(t, ok)
	assert.Equal(t, int64(5), b.GetStop())

	// The pass ended, a late proposal must not shrink anything.
	b.SetTracker(nil)
	_, ok = b.CompareAndSplit(rt, 0.5)
	assert.False(t, ok)
	assert.Equal(t, int64(5), b.GetStop())
	assert.Equal(t, int64(5), rt.StopPosition())
}
