package jukebox

// List names one of the three entry lists.
type List int

const (
	ListPending List = iota
	ListPlayed
	ListRejected
)

// Store is the persistence abstraction for jukebox state.
// Implementations are not safe for concurrent use; the Repository serializes
// all access to its Store. Slices returned by Entries alias the backing
// storage and must be copied before the caller releases its lock.
type Store interface {
	Append(list List, e Entry)
	RemoveAt(list List, i int) (Entry, bool)
	Entries(list List) []Entry
	Len(list List) int
	Current() string
	SetCurrent(videoID string)
}

// InMemoryStore is an in-memory implementation of Store.
type InMemoryStore struct {
	lists   [3][]Entry
	current string
}

// NewInMemoryStore returns a new empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

// Append implements Store.Append.
func (s *InMemoryStore) Append(list List, e Entry) {
	s.lists[list] = append(s.lists[list], e)
}

// RemoveAt implements Store.RemoveAt. ok is false when i is out of range.
func (s *InMemoryStore) RemoveAt(list List, i int) (Entry, bool) {
	l := s.lists[list]
	if i < 0 || i >= len(l) {
		return Entry{}, false
	}
	e := l[i]
	copy(l[i:], l[i+1:])
	l[len(l)-1] = Entry{}
	s.lists[list] = l[:len(l)-1]
	return e, true
}

// Entries implements Store.Entries.
func (s *InMemoryStore) Entries(list List) []Entry {
	return s.lists[list]
}

// Len implements Store.Len.
func (s *InMemoryStore) Len(list List) int {
	return len(s.lists[list])
}

// Current implements Store.Current.
func (s *InMemoryStore) Current() string {
	return s.current
}

// SetCurrent implements Store.SetCurrent.
func (s *InMemoryStore) SetCurrent(videoID string) {
	s.current = videoID
}
