package repository

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/okian/bullpen/internal/domain/model"
)

func TestMemoryStore_Projections(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	if count := store.Count(ctx); count != 0 {
		t.Errorf("expected count 0, got %d", count)
	}
	if _, err := store.Projection(ctx, 147); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	err := store.WriteProjections(ctx, "run-1", 2024, []model.Projection{
		{TeamID: 111, MeanWins: 81},
		{TeamID: 147, MeanWins: 94.5},
		{TeamID: 110, MeanWins: 81},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	top, err := store.TopN(ctx, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []int{147, 110, 111}
	if len(top) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(top))
	}
	for i, id := range want {
		if top[i].TeamID != id {
			t.Errorf("position %d: expected team %d, got %d", i, id, top[i].TeamID)
		}
	}

	top, _ = store.TopN(ctx, 1)
	if len(top) != 1 || top[0].TeamID != 147 {
		t.Errorf("expected only team 147, got %+v", top)
	}
	if _, err := store.TopN(ctx, 0); !errors.Is(err, ErrInvalidLimit) {
		t.Errorf("expected ErrInvalidLimit, got %v", err)
	}

	p, err := store.Projection(ctx, 111)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.MeanWins != 81 {
		t.Errorf("expected 81 mean wins, got %f", p.MeanWins)
	}
	if v := store.View(); v.RunID != "run-1" || v.Season != 2024 {
		t.Errorf("unexpected view header %q %d", v.RunID, v.Season)
	}
}

func TestMemoryStore_SnapshotsReplaceWholeView(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_ = store.WriteSnapshots(ctx, "a", []model.TeamSnapshot{{TeamID: 147, Wins: 3}, {TeamID: 108, Wins: 1}})
	_ = store.WriteSnapshots(ctx, "b", []model.TeamSnapshot{{TeamID: 111, Wins: 2}})

	all, _ := store.Snapshots(ctx)
	if len(all) != 1 || all[0].TeamID != 111 {
		t.Fatalf("expected only team 111, got %+v", all)
	}
	if _, err := store.Snapshot(ctx, 147); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for replaced team, got %v", err)
	}
	snap, err := store.Snapshot(ctx, 111)
	if err != nil || snap.Wins != 2 {
		t.Errorf("expected team 111 with 2 wins, got %+v %v", snap, err)
	}
}

func TestMemoryStore_SnapshotsOrderedByTeam(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	_ = store.WriteSnapshots(ctx, "a", []model.TeamSnapshot{{TeamID: 147}, {TeamID: 108}, {TeamID: 121}})

	all, _ := store.Snapshots(ctx)
	for i := 1; i < len(all); i++ {
		if all[i-1].TeamID > all[i].TeamID {
			t.Fatalf("snapshots out of order: %+v", all)
		}
	}
	// callers own the returned slice
	all[0].Wins = 99
	again, _ := store.Snapshots(ctx)
	if again[0].Wins != 0 {
		t.Error("store view was mutated through a returned slice")
	}
}

func TestMemoryStore_ConcurrentReadersAndWriters(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				_ = store.WriteProjections(ctx, "run", 2024, []model.Projection{
					{TeamID: 100 + w, MeanWins: float64(i)},
				})
			}
		}(w)
	}
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				top, err := store.TopN(ctx, 5)
				if err != nil {
					t.Errorf("unexpected error: %v", err)
					return
				}
				if len(top) > 1 {
					t.Errorf("expected at most one projection, got %d", len(top))
					return
				}
			}
		}()
	}
	wg.Wait()

	if count := store.Count(ctx); count != 1 {
		t.Errorf("expected count 1, got %d", count)
	}
}

func TestSortProjections(t *testing.T) {
	p := []model.Projection{
		{TeamID: 3, MeanWins: 80},
		{TeamID: 1, MeanWins: 80},
		{TeamID: 2, MeanWins: 90},
	}
	SortProjections(p)
	if p[0].TeamID != 2 || p[1].TeamID != 1 || p[2].TeamID != 3 {
		t.Errorf("unexpected order %+v", p)
	}
}
