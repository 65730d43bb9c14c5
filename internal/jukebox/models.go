package jukebox

import "github.com/google/uuid"

// Placeholder values used when a submission leaves a field blank or a lookup fails.
const (
	UnknownTitle    = "Unknown Title"
	UnknownIP       = "Unknown"
	AnonymousUser   = "Anonymous"
	UnknownArtist   = "Unknown Artist"
	WaitingForMusic = "Waiting for music..."
)

// TimestampLayout is the wall-clock format for AddedAt and ProcessedAt.
const TimestampLayout = "15:04:05"

// EntryID identifies an entry for rendering; it carries no ordering meaning.
type EntryID string

// Entry is one submitted song request.
//
// ProcessedAt is nil while the entry is pending and is set exactly once when
// it moves to the played or rejected history.
type Entry struct {
	ID          EntryID `json:"id"`
	URL         string  `json:"url"`
	Title       string  `json:"title"`
	IP          string  `json:"ip"`
	Username    string  `json:"username"`
	AddedAt     string  `json:"added_at"`
	ProcessedAt *string `json:"processed_at,omitempty"`
}

func newEntryID() EntryID {
	return EntryID(uuid.NewString())
}

// clone returns a copy that shares no memory with e.
func (e Entry) clone() Entry {
	if e.ProcessedAt != nil {
		p := *e.ProcessedAt
		e.ProcessedAt = &p
	}
	return e
}

// Snapshot is a point-in-time copy of the jukebox state. It never aliases the
// live lists.
type Snapshot struct {
	Pending  []Entry
	Played   []Entry
	Rejected []Entry
	Current  string // empty when nothing has been selected
	// Version increases by one with every mutation; zero for a value built by hand.
	Version uint64
}

// Total returns the number of entries across all three lists.
func (s Snapshot) Total() int {
	return len(s.Pending) + len(s.Played) + len(s.Rejected)
}

// Action is an operator curation decision.
type Action int

const (
	ActionPlay Action = iota
	ActionReject
)

func (a Action) String() string {
	switch a {
	case ActionPlay:
		return "play"
	case ActionReject:
		return "reject"
	default:
		return "unknown"
	}
}

// CurationResult describes what a curation did. Playable is false when a
// played entry's URL yielded no video id; the current selection is then left
// unchanged.
type CurationResult struct {
	Entry    Entry
	Action   Action
	Playable bool
	VideoID  string
}

// Submission is the input to the submission gateway. Title is optional; when
// set (e.g. the entry came from a search result) no lookup is performed.
// Source labels the front end for metrics ("web", "tui").
type Submission struct {
	URL      string
	Username string
	IP       string
	Title    string
	Source   string
}

// SearchResult is one hit from an external video search.
type SearchResult struct {
	Title     string `json:"title"`
	Channel   string `json:"channel"`
	URL       string `json:"url"`
	Thumbnail string `json:"thumbnail"`
}

// ExportRecord is one line of the played-history export.
type ExportRecord struct {
	Song   string `json:"song"`
	Artist string `json:"artist"`
	URL    string `json:"url"`
}

// NowPlaying is the payload of /api/current and the SSE stream.
type NowPlaying struct {
	VideoID *string `json:"video_id"`
	Title   string  `json:"title"`
}

// NowPlaying resolves the snapshot's current selection against its played history.
func (s Snapshot) NowPlaying() NowPlaying {
	return nowPlayingFrom(s.Current, s.Played)
}
