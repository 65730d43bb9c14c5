package jukebox

import (
	"errors"
	"sync"
	"time"
)

// Repository defines the concurrency-safe contract for accessing and mutating
// jukebox state. Every method holds the repository's lock for its whole
// duration; no method calls back into another while holding it.
type Repository interface {
	// Enqueue appends e to the pending queue. The caller guarantees e is
	// well-formed.
	Enqueue(e Entry)

	// Snapshot returns an independent copy of all lists and the current
	// selection.
	Snapshot() Snapshot

	// AdvanceToPlayed moves the pending entry at index to the played history,
	// stamps its ProcessedAt and, when its URL yields a video id, makes that
	// id the current selection. playable reports whether an id was found.
	// ErrIndexOutOfRange is returned when index is not a pending position.
	AdvanceToPlayed(index int) (e Entry, playable bool, err error)

	// AdvanceToRejected moves the pending entry at index to the rejected
	// history and stamps its ProcessedAt. The current selection is untouched.
	AdvanceToRejected(index int) (Entry, error)

	// CurrentSelection returns the current video id, ok=false when none.
	CurrentSelection() (videoID string, ok bool)

	// NowPlaying resolves the current selection to the title of the most
	// recently played entry with the same id.
	NowPlaying() NowPlaying

	// PendingCount returns the number of pending entries.
	PendingCount() int
}

// ErrIndexOutOfRange is returned when a curation targets a position that is
// not in the pending queue, usually because the row was curated concurrently.
var ErrIndexOutOfRange = errors.New("index out of range")

// ChangeFunc is notified after every mutation, outside the repository lock.
// Observers of concurrent mutations may run in any order; Snapshot.Version
// tells a newer state from an older one.
type ChangeFunc func(s Snapshot)

// InMemoryRepository is a concurrency-safe in-memory implementation of Repository.
// It uses a Store for persistence; by default that is an InMemoryStore.
type InMemoryRepository struct {
	mu    sync.RWMutex
	store   Store
	now     func() time.Time
	version uint64

	obsMu     sync.RWMutex
	observers []ChangeFunc
}

// NewInMemoryRepository constructs a new repository with a default in-memory store.
func NewInMemoryRepository() *InMemoryRepository {
	return NewInMemoryRepositoryWithStore(NewInMemoryStore())
}

// NewInMemoryRepositoryWithStore constructs a repository that uses the given Store.
// Useful for testing or for plugging in a different persistence backend.
func NewInMemoryRepositoryWithStore(store Store) *InMemoryRepository {
	return &InMemoryRepository{store: store, now: time.Now}
}

// OnChange registers fn to be called after every mutation with the snapshot
// taken inside that mutation's critical section. Observers run on the
// mutating goroutine after the lock is released.
func (r *InMemoryRepository) OnChange(fn ChangeFunc) {
	r.obsMu.Lock()
	defer r.obsMu.Unlock()
	r.observers = append(r.observers, fn)
}

// Enqueue implements Repository.Enqueue.
func (r *InMemoryRepository) Enqueue(e Entry) {
	r.mu.Lock()
	r.store.Append(ListPending, e.clone())
	snap, observers := r.commitLocked()
	r.mu.Unlock()

	r.notify(snap, observers)
}

// Snapshot implements Repository.Snapshot.
func (r *InMemoryRepository) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshotLocked()
}

// AdvanceToPlayed implements Repository.AdvanceToPlayed.
func (r *InMemoryRepository) AdvanceToPlayed(index int) (Entry, bool, error) {
	r.mu.Lock()
	e, ok := r.moveLocked(index, ListPlayed)
	if !ok {
		r.mu.Unlock()
		return Entry{}, false, ErrIndexOutOfRange
	}
	id, playable := ExtractVideoID(e.URL)
	if playable {
		r.store.SetCurrent(id)
	}
	snap, observers := r.commitLocked()
	r.mu.Unlock()

	r.notify(snap, observers)
	return e, playable, nil
}

// AdvanceToRejected implements Repository.AdvanceToRejected.
func (r *InMemoryRepository) AdvanceToRejected(index int) (Entry, error) {
	r.mu.Lock()
	e, ok := r.moveLocked(index, ListRejected)
	if !ok {
		r.mu.Unlock()
		return Entry{}, ErrIndexOutOfRange
	}
	snap, observers := r.commitLocked()
	r.mu.Unlock()

	r.notify(snap, observers)
	return e, nil
}

// CurrentSelection implements Repository.CurrentSelection.
func (r *InMemoryRepository) CurrentSelection() (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cur := r.store.Current()
	return cur, cur != ""
}

// NowPlaying implements Repository.NowPlaying.
func (r *InMemoryRepository) NowPlaying() NowPlaying {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return nowPlayingFrom(r.store.Current(), r.store.Entries(ListPlayed))
}

// PendingCount implements Repository.PendingCount.
func (r *InMemoryRepository) PendingCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.store.Len(ListPending)
}

// moveLocked removes the pending entry at index, stamps it and appends it to
// dst. Caller must hold r.mu in write mode.
func (r *InMemoryRepository) moveLocked(index int, dst List) (Entry, bool) {
	e, ok := r.store.RemoveAt(ListPending, index)
	if !ok {
		return Entry{}, false
	}
	stamp := r.now().Format(TimestampLayout)
	e.ProcessedAt = &stamp
	r.store.Append(dst, e)
	return e.clone(), true
}

// snapshotLocked copies every list. Caller must hold r.mu.
func (r *InMemoryRepository) snapshotLocked() Snapshot {
	return Snapshot{
		Pending:  copyEntries(r.store.Entries(ListPending)),
		Played:   copyEntries(r.store.Entries(ListPlayed)),
		Rejected: copyEntries(r.store.Entries(ListRejected)),
		Current:  r.store.Current(),
		Version:  r.version,
	}
}

// commitLocked bumps the version and captures the post-mutation state for
// observers. Caller must hold r.mu in write mode.
func (r *InMemoryRepository) commitLocked() (Snapshot, []ChangeFunc) {
	r.version++
	r.obsMu.RLock()
	observers := r.observers
	r.obsMu.RUnlock()
	if len(observers) == 0 {
		return Snapshot{}, nil
	}
	return r.snapshotLocked(), observers
}

func (r *InMemoryRepository) notify(snap Snapshot, observers []ChangeFunc) {
	for _, fn := range observers {
		fn(snap)
	}
}

// nowPlayingFrom scans played newest first for the entry whose id is current.
func nowPlayingFrom(current string, played []Entry) NowPlaying {
	if current == "" {
		return NowPlaying{Title: WaitingForMusic}
	}
	np := NowPlaying{VideoID: &current, Title: WaitingForMusic}
	for i := len(played) - 1; i >= 0; i-- {
		if id, ok := ExtractVideoID(played[i].URL); ok && id == current {
			np.Title = played[i].Title
			break
		}
	}
	return np
}

func copyEntries(src []Entry) []Entry {
	out := make([]Entry, len(src))
	for i, e := range src {
		out[i] = e.clone()
	}
	return out
}
