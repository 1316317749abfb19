package booking

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/expohub/expo-reservation/internal/model"
)

func TestBuildRollup(t *testing.T) {
	closes := time.Now().UTC().Add(time.Hour)
	resources := []model.ResourceInfo{
		{Ref: model.ResourceRef{Type: model.ResourceBooth, ID: 1}, Capacity: 1, ConfirmedCount: 1, ExpoStatus: model.ExpoPublished, ClosesAt: closes},
		{Ref: model.ResourceRef{Type: model.ResourceBooth, ID: 2}, Capacity: 4, ConfirmedCount: 1, ExpoStatus: model.ExpoPublished, ClosesAt: closes},
		{Ref: model.ResourceRef{Type: model.ResourceSession, ID: 3}, Capacity: 10, ConfirmedCount: 5, ExpoStatus: model.ExpoPublished, ClosesAt: closes},
	}
	rollup := BuildRollup(42, resources)

	assert.Equal(t, uint64(42), rollup.ExpoID)
	assert.Equal(t, 2, rollup.BoothCount)
	assert.Equal(t, 1, rollup.SessionCount)
	assert.Equal(t, uint32(15), rollup.TotalCapacity)
	assert.Equal(t, uint32(7), rollup.TotalConfirmed)
	assert.InDelta(t, 7.0/15.0, rollup.Occupancy, 1e-9)
	assert.InDelta(t, 1.0, rollup.Resources[0].Occupancy, 1e-9)
}

func TestBuildRollupClampsOverCapacity(t *testing.T) {
	// A stale snapshot must never report more than full.
	rollup := BuildRollup(1, []model.ResourceInfo{
		{Ref: model.ResourceRef{Type: model.ResourceBooth, ID: 1}, Capacity: 2, ConfirmedCount: 3},
	})
	assert.Equal(t, uint32(2), rollup.Resources[0].Confirmed)
	assert.InDelta(t, 1.0, rollup.Resources[0].Occupancy, 1e-9)
	assert.InDelta(t, 1.0, rollup.Occupancy, 1e-9)
}

func TestBuildRollupEmptyExpo(t *testing.T) {
	rollup := BuildRollup(1, nil)
	assert.Zero(t, rollup.TotalCapacity)
	assert.Zero(t, rollup.Occupancy)
	assert.Empty(t, rollup.Resources)
}

func TestExpoAnalyticsIsReadOnly(t *testing.T) {
	svc, store, _ := newTestService(t, boothInfo(1, 10, 2), sessionInfo(2, 10, 3))
	_, err := svc.Book(context.Background(), model.ResourceRef{Type: model.ResourceBooth, ID: 1}, exhibitor(7))
	require.NoError(t, err)

	before, err := store.ExpoResources(context.Background(), 10)
	require.NoError(t, err)

	rollup, err := svc.ExpoAnalytics(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), rollup.TotalConfirmed)

	after, err := store.ExpoResources(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}
