package jukebox

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func fixedClock() func() time.Time {
	return func() time.Time { return time.Date(2024, 5, 1, 21, 30, 15, 0, time.Local) }
}

func newTestRepository() *InMemoryRepository {
	repo := NewInMemoryRepository()
	repo.now = fixedClock()
	return repo
}

func testEntry(n int, url string) Entry {
	return Entry{
		ID:       EntryID(fmt.Sprintf("e%d", n)),
		URL:      url,
		Title:    fmt.Sprintf("Artist %d - Song %d", n, n),
		IP:       "10.0.0.1",
		Username: "alice",
		AddedAt:  "21:00:00",
	}
}

const (
	rickURL = "https://www.youtube.com/watch?v=dQw4w9WgXcQ"
	psyURL  = "https://youtu.be/9bZkp7q19f0"
)

func TestInMemoryRepository_Enqueue(t *testing.T) {
	repo := newTestRepository()
	repo.Enqueue(testEntry(1, rickURL))
	repo.Enqueue(testEntry(2, psyURL))

	snap := repo.Snapshot()
	if len(snap.Pending) != 2 {
		t.Fatalf("expected 2 pending, got %d", len(snap.Pending))
	}
	if snap.Pending[0].ID != "e1" || snap.Pending[1].ID != "e2" {
		t.Errorf("pending not FIFO: %v", snap.Pending)
	}
	if snap.Pending[0].ProcessedAt != nil {
		t.Error("pending entry should have nil ProcessedAt")
	}
	if repo.PendingCount() != 2 {
		t.Errorf("PendingCount: got %d", repo.PendingCount())
	}
}

func TestInMemoryRepository_AdvanceToPlayed(t *testing.T) {
	t.Run("moves_entry_and_sets_current", func(t *testing.T) {
		repo := newTestRepository()
		repo.Enqueue(testEntry(1, rickURL))
		repo.Enqueue(testEntry(2, psyURL))

		e, playable, err := repo.AdvanceToPlayed(1)
		if err != nil {
			t.Fatalf("AdvanceToPlayed: %v", err)
		}
		if !playable {
			t.Error("expected playable")
		}
		if e.ProcessedAt == nil || *e.ProcessedAt != "21:30:15" {
			t.Errorf("ProcessedAt: got %v", e.ProcessedAt)
		}
		snap := repo.Snapshot()
		if len(snap.Pending) != 1 || len(snap.Played) != 1 || snap.Total() != 2 {
			t.Errorf("unexpected sizes: pending=%d played=%d", len(snap.Pending), len(snap.Played))
		}
		if snap.Current != "9bZkp7q19f0" {
			t.Errorf("current: got %q", snap.Current)
		}
		if id, ok := repo.CurrentSelection(); !ok || id != "9bZkp7q19f0" {
			t.Errorf("CurrentSelection: got %q, %v", id, ok)
		}
	})

	t.Run("no_video_id_leaves_current", func(t *testing.T) {
		repo := newTestRepository()
		repo.Enqueue(testEntry(1, rickURL))
		// Entries are not validated by the store, so one without an id can reach it.
		repo.Enqueue(testEntry(2, "https://example.com/not-a-video"))

		if _, _, err := repo.AdvanceToPlayed(0); err != nil {
			t.Fatalf("AdvanceToPlayed: %v", err)
		}
		_, playable, err := repo.AdvanceToPlayed(0)
		if err != nil {
			t.Fatalf("AdvanceToPlayed: %v", err)
		}
		if playable {
			t.Error("expected not playable")
		}
		if cur, _ := repo.CurrentSelection(); cur != "dQw4w9WgXcQ" {
			t.Errorf("current should be unchanged, got %q", cur)
		}
		if got := len(repo.Snapshot().Played); got != 2 {
			t.Errorf("entry should still be played, got %d", got)
		}
	})
}

func TestInMemoryRepository_AdvanceToRejected(t *testing.T) {
	repo := newTestRepository()
	repo.Enqueue(testEntry(1, rickURL))
	repo.Enqueue(testEntry(2, psyURL))

	e, err := repo.AdvanceToRejected(0)
	if err != nil {
		t.Fatalf("AdvanceToRejected: %v", err)
	}
	if e.ID != "e1" || e.ProcessedAt == nil {
		t.Errorf("unexpected rejected entry %+v", e)
	}
	snap := repo.Snapshot()
	if len(snap.Pending) != 1 || len(snap.Rejected) != 1 || snap.Total() != 2 {
		t.Errorf("unexpected sizes: pending=%d rejected=%d", len(snap.Pending), len(snap.Rejected))
	}
	if snap.Current != "" {
		t.Errorf("reject must not set current, got %q", snap.Current)
	}
}

func TestInMemoryRepository_out_of_range(t *testing.T) {
	repo := newTestRepository()
	repo.Enqueue(testEntry(1, rickURL))
	before := repo.Snapshot()

	for _, idx := range []int{-1, 1, 42} {
		if _, _, err := repo.AdvanceToPlayed(idx); !errors.Is(err, ErrIndexOutOfRange) {
			t.Errorf("AdvanceToPlayed(%d): expected ErrIndexOutOfRange, got %v", idx, err)
		}
		if _, err := repo.AdvanceToRejected(idx); !errors.Is(err, ErrIndexOutOfRange) {
			t.Errorf("AdvanceToRejected(%d): expected ErrIndexOutOfRange, got %v", idx, err)
		}
	}

	if diff := cmp.Diff(before, repo.Snapshot()); diff != "" {
		t.Errorf("state changed after out-of-range calls (-before +after):\n%s", diff)
	}
}

func TestInMemoryRepository_Snapshot_is_independent(t *testing.T) {
	repo := newTestRepository()
	repo.Enqueue(testEntry(1, rickURL))
	repo.Enqueue(testEntry(2, psyURL))
	_, _, _ = repo.AdvanceToPlayed(0)

	snap := repo.Snapshot()
	snap.Pending[0].Title = "mutated"
	*snap.Played[0].ProcessedAt = "00:00:00"

	again := repo.Snapshot()
	if again.Pending[0].Title == "mutated" {
		t.Error("snapshot aliases pending list")
	}
	if *again.Played[0].ProcessedAt != "21:30:15" {
		t.Error("snapshot aliases ProcessedAt")
	}
}

func TestInMemoryRepository_NowPlaying(t *testing.T) {
	repo := newTestRepository()

	np := repo.NowPlaying()
	if np.VideoID != nil || np.Title != WaitingForMusic {
		t.Errorf("empty repository: got %+v", np)
	}

	first := testEntry(1, rickURL)
	first.Title = "first play"
	again := testEntry(2, rickURL+"&t=10")
	again.Title = "second play"
	repo.Enqueue(first)
	repo.Enqueue(again)
	_, _, _ = repo.AdvanceToPlayed(0)
	_, _, _ = repo.AdvanceToPlayed(0)

	np = repo.NowPlaying()
	if np.VideoID == nil || *np.VideoID != "dQw4w9WgXcQ" {
		t.Fatalf("VideoID: got %v", np.VideoID)
	}
	if np.Title != "second play" {
		t.Errorf("expected newest matching title, got %q", np.Title)
	}
}

func TestInMemoryRepository_OnChange(t *testing.T) {
	repo := newTestRepository()
	var seen []int
	repo.OnChange(func(s Snapshot) {
		// Reading back through the repository must not deadlock.
		_ = repo.PendingCount()
		seen = append(seen, len(s.Pending))
	})

	repo.Enqueue(testEntry(1, rickURL))
	repo.Enqueue(testEntry(2, psyURL))
	_, _ = repo.AdvanceToRejected(0)
	_, _, _ = repo.AdvanceToPlayed(5)

	if diff := cmp.Diff([]int{1, 2, 1}, seen); diff != "" {
		t.Errorf("observer calls (-want +got):\n%s", diff)
	}
}

func TestInMemoryRepository_versions(t *testing.T) {
	repo := newTestRepository()
	var seen []Snapshot
	repo.OnChange(func(s Snapshot) { seen = append(seen, s) })

	repo.Enqueue(testEntry(1, rickURL))
	repo.Enqueue(testEntry(2, psyURL))
	_, _, _ = repo.AdvanceToPlayed(0)
	_, _, _ = repo.AdvanceToPlayed(7)
	_, _ = repo.AdvanceToRejected(0)

	if got := repo.Snapshot().Version; got != 4 {
		t.Fatalf("expected version 4 after four mutations, got %d", got)
	}
	if len(seen) != 4 {
		t.Fatalf("expected 4 notifications, got %d", len(seen))
	}
	for i, s := range seen {
		if s.Version != uint64(i+1) {
			t.Errorf("notification %d: version %d", i, s.Version)
		}
	}
	// Each observer sees the state its own mutation produced.
	if len(seen[0].Pending) != 1 || seen[0].Current != "" {
		t.Errorf("enqueue snapshot: %+v", seen[0])
	}
	if seen[2].Current != "dQw4w9WgXcQ" || len(seen[2].Pending) != 1 {
		t.Errorf("play snapshot: %+v", seen[2])
	}
}

func TestInMemoryRepository_concurrent_access(t *testing.T) {
	repo := newTestRepository()
	const writers = 50

	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			repo.Enqueue(testEntry(n, rickURL))
		}(i)
	}
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = repo.Snapshot()
			_, _, _ = repo.AdvanceToPlayed(0)
		}()
	}
	wg.Wait()

	snap := repo.Snapshot()
	if snap.Total() != writers {
		t.Fatalf("expected %d entries in total, got %d", writers, snap.Total())
	}
	ids := make(map[EntryID]bool)
	for _, list := range [][]Entry{snap.Pending, snap.Played, snap.Rejected} {
		for _, e := range list {
			if ids[e.ID] {
				t.Errorf("entry %s appears twice", e.ID)
			}
			ids[e.ID] = true
		}
	}
}
