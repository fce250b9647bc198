package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMoldBusyStore_FirstFreeStart_NoConflicts(t *testing.T) {
	s := newMoldBusyStore()
	start, ok := s.firstFreeStart("mold-a", 1, 0, 2, 10)
	assert.True(t, ok)
	assert.Equal(t, 0.0, start)
}

func TestMoldBusyStore_FirstFreeStart_SlidesPastOverlap(t *testing.T) {
	s := newMoldBusyStore()
	s.add("mold-a", 1, interval{start: 2, end: 5})

	start, ok := s.firstFreeStart("mold-a", 1, 0, 3, 10)
	require := assert.New(t)
	require.True(ok)
	require.Equal(5.0, start)
}

func TestMoldBusyStore_FirstFreeStart_FailsWhenExceedsCapacity(t *testing.T) {
	s := newMoldBusyStore()
	s.add("mold-a", 1, interval{start: 0, end: 9})

	_, ok := s.firstFreeStart("mold-a", 1, 0, 2, 10)
	assert.False(t, ok)
}

func TestMoldBusyStore_DifferentDaysIndependent(t *testing.T) {
	s := newMoldBusyStore()
	s.add("mold-a", 1, interval{start: 0, end: 10})

	start, ok := s.firstFreeStart("mold-a", 2, 0, 2, 10)
	assert.True(t, ok)
	assert.Equal(t, 0.0, start)
}

func TestMoldBusyStore_DifferentMoldsIndependent(t *testing.T) {
	s := newMoldBusyStore()
	s.add("mold-a", 1, interval{start: 0, end: 10})

	start, ok := s.firstFreeStart("mold-b", 1, 0, 2, 10)
	assert.True(t, ok)
	assert.Equal(t, 0.0, start)
}
