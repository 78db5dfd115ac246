package repository

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/bullpen/internal/domain/model"
	"github.com/okian/bullpen/pkg/metrics"
)

const sinkMemory = "memory"

// View is an immutable copy of the store contents. Readers load it without
// locking; writers publish a new one.
type View struct {
	RunID       string
	Season      int
	UpdatedAt   time.Time
	Projections []model.Projection // mean wins desc, then team id
	Snapshots   []model.TeamSnapshot

	projectionByTeam map[int]int
	snapshotByTeam   map[int]int
}

// MemoryStore keeps the latest run in memory. It implements Sink and Store.
type MemoryStore struct {
	mu   sync.Mutex // serializes writers
	view atomic.Pointer[View]
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{}
	s.view.Store(&View{})
	return s
}

// View returns the current immutable view.
func (s *MemoryStore) View() *View { return s.view.Load() }

// WriteFeatures implements Sink. Feature rows are not served, so the write
// only counts them.
func (s *MemoryStore) WriteFeatures(_ context.Context, _ string, rows []model.FeatureRow) error {
	metrics.RecordSinkWrite(sinkMemory, "ok", len(rows))
	return nil
}

// WriteSnapshots implements Sink by replacing the served snapshots.
func (s *MemoryStore) WriteSnapshots(_ context.Context, runID string, snapshots []model.TeamSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.clone()
	next.RunID = runID
	next.Snapshots = append([]model.TeamSnapshot(nil), snapshots...)
	sort.Slice(next.Snapshots, func(i, j int) bool {
		return next.Snapshots[i].TeamID < next.Snapshots[j].TeamID
	})
	next.snapshotByTeam = make(map[int]int, len(next.Snapshots))
	for i, snap := range next.Snapshots {
		next.snapshotByTeam[snap.TeamID] = i
	}
	s.publish(next)
	metrics.RecordSinkWrite(sinkMemory, "ok", len(snapshots))
	return nil
}

// WriteProjections implements Sink by replacing the served projections.
func (s *MemoryStore) WriteProjections(_ context.Context, runID string, season int, projections []model.Projection) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.clone()
	next.RunID = runID
	next.Season = season
	next.Projections = append([]model.Projection(nil), projections...)
	SortProjections(next.Projections)
	next.projectionByTeam = make(map[int]int, len(next.Projections))
	for i, p := range next.Projections {
		next.projectionByTeam[p.TeamID] = i
	}
	s.publish(next)
	metrics.RecordSinkWrite(sinkMemory, "ok", len(projections))
	return nil
}

// TopN implements Store.
func (s *MemoryStore) TopN(_ context.Context, n int) ([]model.Projection, error) {
	if n <= 0 {
		metrics.RecordErrorByComponent("repository", "invalid_limit")
		return nil, ErrInvalidLimit
	}
	v := s.view.Load()
	if n > len(v.Projections) {
		n = len(v.Projections)
	}
	out := make([]model.Projection, n)
	copy(out, v.Projections[:n])
	return out, nil
}

// Projection implements Store.
func (s *MemoryStore) Projection(_ context.Context, teamID int) (model.Projection, error) {
	v := s.view.Load()
	i, ok := v.projectionByTeam[teamID]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return model.Projection{}, ErrNotFound
	}
	return v.Projections[i], nil
}

// Snapshot implements Store.
func (s *MemoryStore) Snapshot(_ context.Context, teamID int) (model.TeamSnapshot, error) {
	v := s.view.Load()
	i, ok := v.snapshotByTeam[teamID]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return model.TeamSnapshot{}, ErrNotFound
	}
	return v.Snapshots[i], nil
}

// Snapshots implements Store.
func (s *MemoryStore) Snapshots(_ context.Context) ([]model.TeamSnapshot, error) {
	v := s.view.Load()
	return append([]model.TeamSnapshot(nil), v.Snapshots...), nil
}

// Count implements Store.
func (s *MemoryStore) Count(_ context.Context) int {
	return len(s.view.Load().Projections)
}

// clone copies the current view header. Published views are never mutated,
// so slices and indexes may be shared until replaced.
func (s *MemoryStore) clone() *View {
	cur := *s.view.Load()
	return &cur
}

func (s *MemoryStore) publish(v *View) {
	v.UpdatedAt = time.Now().UTC()
	s.view.Store(v)
}

// SortProjections orders projections by mean wins descending, then team id.
func SortProjections(p []model.Projection) {
	sort.SliceStable(p, func(i, j int) bool {
		if p[i].MeanWins != p[j].MeanWins {
			return p[i].MeanWins > p[j].MeanWins
		}
		return p[i].TeamID < p[j].TeamID
	})
}
