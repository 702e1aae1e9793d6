package service

import (
	"context"
	"sort"
	"time"

	"github.com/Gagankhurana-12/Yatri-Kavach/internal/geo"
)

// Match is a device found inside a broadcast radius.
type Match struct {
	Identity string
	Distance float64
}

// ProximityService answers "which devices are within r meters of p".
// It scans a registry snapshot; a bounding box discards far candidates before
// the haversine check.
type ProximityService struct {
	registry *DeviceService
	maxAge   time.Duration
	now      func() time.Time
}

// NewProximityService builds the query engine. A positive maxAge excludes
// devices whose last report is older than maxAge.
func NewProximityService(registry *DeviceService, maxAge time.Duration) *ProximityService {
	return &ProximityService{
		registry: registry,
		maxAge:   maxAge,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// FindWithin returns every located device with distance <= radius, nearest
// first. An empty result is not an error.
func (s *ProximityService) FindWithin(ctx context.Context, center geo.Point, radius float64) ([]Match, error) {
	devices, err := s.registry.AllWithLocation(ctx)
	if err != nil {
		return nil, err
	}
	box := geo.BoundingBox(center, radius)
	fresh := s.freshness()

	var matches []Match
	for _, d := range devices {
		if !fresh(d.UpdatedAt) {
			continue
		}
		pos := d.Position()
		if !box.Contains(pos) {
			continue
		}
		dist := geo.Distance(center, pos)
		if dist <= radius {
			matches = append(matches, Match{Identity: d.Identity, Distance: dist})
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Distance != matches[j].Distance {
			return matches[i].Distance < matches[j].Distance
		}
		return matches[i].Identity < matches[j].Identity
	})
	return matches, nil
}

func (s *ProximityService) freshness() func(time.Time) bool {
	if s.maxAge <= 0 {
		return func(time.Time) bool { return true }
	}
	cutoff := s.now().Add(-s.maxAge)
	return func(updated time.Time) bool {
		return !updated.Before(cutoff)
	}
}

// Identities flattens matches to their identities, preserving order.
func Identities(matches []Match) []string {
	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = m.Identity
	}
	return out
}
