package booking

import (
	"context"

	"github.com/expohub/expo-reservation/internal/model"
)

// ResourceOccupancy is the per-resource slice of an analytics rollup.
type ResourceOccupancy struct {
	ResourceType string  `json:"resource_type"`
	ResourceID   uint64  `json:"resource_id"`
	Label        string  `json:"label"`
	Capacity     uint32  `json:"capacity"`
	Confirmed    uint32  `json:"confirmed"`
	Occupancy    float64 `json:"occupancy"`
}

// ExpoRollup aggregates occupancy over all booths and sessions of an
// expo. It is derived purely from ledger reads and never mutates
// reservation or counter state.
type ExpoRollup struct {
	ExpoID         uint64              `json:"expo_id"`
	BoothCount     int                 `json:"booth_count"`
	SessionCount   int                 `json:"session_count"`
	TotalCapacity  uint32              `json:"total_capacity"`
	TotalConfirmed uint32              `json:"total_confirmed"`
	Occupancy      float64             `json:"occupancy"`
	Resources      []ResourceOccupancy `json:"resources"`
}

// BuildRollup computes occupancy figures from a snapshot of resources.
// The snapshot may be slightly stale with respect to in-flight
// reservations, but reported confirmed counts are clamped at capacity
// so the rollup can never show more than full.
func BuildRollup(expoID uint64, resources []model.ResourceInfo) ExpoRollup {
	rollup := ExpoRollup{ExpoID: expoID, Resources: make([]ResourceOccupancy, 0, len(resources))}
	for _, r := range resources {
		confirmed := r.ConfirmedCount
		if confirmed > r.Capacity {
			confirmed = r.Capacity
		}
		occ := ResourceOccupancy{
			ResourceType: string(r.Ref.Type),
			ResourceID:   r.Ref.ID,
			Label:        r.Label,
			Capacity:     r.Capacity,
			Confirmed:    confirmed,
		}
		if r.Capacity > 0 {
			occ.Occupancy = float64(confirmed) / float64(r.Capacity)
		}
		switch r.Ref.Type {
		case model.ResourceBooth:
			rollup.BoothCount++
		case model.ResourceSession:
			rollup.SessionCount++
		}
		rollup.TotalCapacity += occ.Capacity
		rollup.TotalConfirmed += confirmed
		rollup.Resources = append(rollup.Resources, occ)
	}
	if rollup.TotalCapacity > 0 {
		rollup.Occupancy = float64(rollup.TotalConfirmed) / float64(rollup.TotalCapacity)
	}
	return rollup
}

// ExpoAnalytics returns the occupancy rollup for an expo.
func (s *Service) ExpoAnalytics(ctx context.Context, expoID uint64) (ExpoRollup, error) {
	resources, err := s.store.ExpoResources(ctx, expoID)
	if err != nil {
		return ExpoRollup{}, err
	}
	return BuildRollup(expoID, resources), nil
}
