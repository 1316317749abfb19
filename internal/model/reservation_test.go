package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestReservationTransitions(t *testing.T) {
	legal := [][2]string{
		{ReservationPending, ReservationConfirmed},
		{ReservationPending, ReservationRejected},
		{ReservationConfirmed, ReservationCancelled},
	}
	for _, tr := range legal {
		assert.True(t, CanTransitionReservation(tr[0], tr[1]), "%s -> %s should be legal", tr[0], tr[1])
	}

	// Nothing leaves a terminal state, and no transition skips a state.
	illegal := [][2]string{
		{ReservationCancelled, ReservationConfirmed},
		{ReservationCancelled, ReservationPending},
		{ReservationRejected, ReservationConfirmed},
		{ReservationRejected, ReservationCancelled},
		{ReservationPending, ReservationCancelled},
		{ReservationConfirmed, ReservationPending},
		{ReservationConfirmed, ReservationRejected},
	}
	for _, tr := range illegal {
		assert.False(t, CanTransitionReservation(tr[0], tr[1]), "%s -> %s should be illegal", tr[0], tr[1])
	}
}

func TestReservationTerminalAndActive(t *testing.T) {
	assert.True(t, ReservationTerminal(ReservationCancelled))
	assert.True(t, ReservationTerminal(ReservationRejected))
	assert.False(t, ReservationTerminal(ReservationPending))
	assert.False(t, ReservationTerminal(ReservationConfirmed))

	assert.True(t, ReservationActive(ReservationPending))
	assert.True(t, ReservationActive(ReservationConfirmed))
	assert.False(t, ReservationActive(ReservationCancelled))
	assert.False(t, ReservationActive(ReservationRejected))
}

func TestApplicationTransitionsSeparateFromReservations(t *testing.T) {
	assert.True(t, CanTransitionApplication(ApplicationPending, ApplicationApproved))
	assert.True(t, CanTransitionApplication(ApplicationPending, ApplicationRejected))
	assert.False(t, CanTransitionApplication(ApplicationApproved, ApplicationRejected))
	assert.False(t, CanTransitionApplication(ApplicationRejected, ApplicationApproved))

	// The application machine has no CONFIRMED or CANCELLED vocabulary.
	assert.False(t, CanTransitionApplication(ApplicationPending, ReservationConfirmed))
	assert.False(t, CanTransitionApplication(ApplicationApproved, ReservationCancelled))
}

func TestExpoLifecycle(t *testing.T) {
	assert.True(t, CanPublish(ExpoDraft))
	assert.False(t, CanPublish(ExpoPublished))
	assert.False(t, CanPublish(ExpoCompleted))

	assert.True(t, CanUnpublish(ExpoPublished))
	assert.False(t, CanUnpublish(ExpoDraft))
	assert.False(t, CanUnpublish(ExpoCompleted))

	assert.True(t, CanComplete(ExpoPublished))
	assert.False(t, CanComplete(ExpoDraft))
	assert.False(t, CanComplete(ExpoCompleted))
}

func TestResourceOpenAndRemaining(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	info := ResourceInfo{
		Ref:            ResourceRef{Type: ResourceBooth, ID: 1},
		Capacity:       3,
		ConfirmedCount: 1,
		ExpoStatus:     ExpoPublished,
		ClosesAt:       now.Add(24 * time.Hour),
	}
	assert.True(t, info.Open(now))
	assert.Equal(t, uint32(2), info.Remaining())

	info.ExpoStatus = ExpoDraft
	assert.False(t, info.Open(now))

	info.ExpoStatus = ExpoPublished
	info.ClosesAt = now.Add(-time.Minute)
	assert.False(t, info.Open(now))

	// Remaining never underflows even if the counter drifted high.
	info.ConfirmedCount = 5
	assert.Equal(t, uint32(0), info.Remaining())
}
