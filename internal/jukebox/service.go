package jukebox

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"jukebox/internal/platform/logger"
	"jukebox/internal/platform/metrics"
)

// DefaultAverageSongMinutes is the per-entry wait estimate used when none is configured.
const DefaultAverageSongMinutes = 4

var (
	// ErrInvalidURL is returned by Submit when the URL is empty or does not
	// look like a supported video link.
	ErrInvalidURL = errors.New("invalid video url")
	// ErrUnknownAction is returned by Curate for an Action other than play or reject.
	ErrUnknownAction = errors.New("unknown curation action")
)

// TitleResolver looks up a human-readable title for a video link.
type TitleResolver interface {
	ResolveTitle(ctx context.Context, url string) (string, error)
}

// Searcher runs a free-text video search. Implementations return an empty
// slice on failure.
type Searcher interface {
	Search(ctx context.Context, query string) []SearchResult
}

// Options tunes a Service. Zero values select defaults.
type Options struct {
	AverageSongMinutes int
	LookupTimeout      time.Duration
	SearchTimeout      time.Duration
	Workers            int
	Logger             *slog.Logger
	Metrics            *metrics.Metrics
}

// Service is the submission gateway and curation operation on top of a
// Repository. Title lookups and searches run outside the repository lock.
type Service struct {
	repo     Repository
	titles   TitleResolver
	searcher Searcher
	pool     *Pool
	log      *slog.Logger
	metrics  *metrics.Metrics
	now      func() time.Time

	avgSongMinutes int
	lookupTimeout  time.Duration
	searchTimeout  time.Duration
}

// NewService returns a Service backed by repo. titles and searcher may be nil,
// in which case every submission gets UnknownTitle and searches return nothing.
func NewService(repo Repository, titles TitleResolver, searcher Searcher, opts Options) *Service {
	if opts.AverageSongMinutes <= 0 {
		opts.AverageSongMinutes = DefaultAverageSongMinutes
	}
	if opts.LookupTimeout <= 0 {
		opts.LookupTimeout = 5 * time.Second
	}
	if opts.SearchTimeout <= 0 {
		opts.SearchTimeout = 10 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = logger.Discard()
	}
	return &Service{
		repo:           repo,
		titles:         titles,
		searcher:       searcher,
		pool:           NewPool(opts.Workers),
		log:            opts.Logger,
		metrics:        opts.Metrics,
		now:            time.Now,
		avgSongMinutes: opts.AverageSongMinutes,
		lookupTimeout:  opts.LookupTimeout,
		searchTimeout:  opts.SearchTimeout,
	}
}

// Close stops the lookup workers.
func (s *Service) Close() {
	s.pool.Close()
}

// Repository returns the repository the service writes to.
func (s *Service) Repository() Repository {
	return s.repo
}

// Submit validates sub, resolves a title when none was given and appends a
// new pending entry. A failed title lookup never fails the submission.
func (s *Service) Submit(ctx context.Context, sub Submission) (Entry, error) {
	url := strings.TrimSpace(sub.URL)
	if url == "" || !IsValidVideoURL(url) {
		s.countSubmission(sub.Source, "invalid")
		return Entry{}, ErrInvalidURL
	}

	title := strings.TrimSpace(sub.Title)
	if title == "" {
		title = s.resolveTitle(ctx, url)
	}

	e := Entry{
		ID:       newEntryID(),
		URL:      url,
		Title:    title,
		IP:       orDefault(sub.IP, UnknownIP),
		Username: orDefault(sub.Username, AnonymousUser),
		AddedAt:  s.now().Format(TimestampLayout),
	}
	s.repo.Enqueue(e)

	s.log.Info("entry queued",
		slog.String("id", string(e.ID)),
		slog.String("title", e.Title),
		slog.String("username", e.Username),
		slog.String("ip", e.IP))
	s.countSubmission(sub.Source, "accepted")
	return e, nil
}

// SubmitResult is delivered by SubmitAsync.
type SubmitResult struct {
	Entry Entry
	Err   error
}

// SubmitAsync runs Submit on the worker pool. The returned channel always
// receives exactly one result; ErrPoolClosed when the pool shut down first.
func (s *Service) SubmitAsync(ctx context.Context, sub Submission) <-chan SubmitResult {
	out := make(chan SubmitResult, 1)
	err := s.pool.GoOrDrop(ctx, func() {
		e, err := s.Submit(ctx, sub)
		out <- SubmitResult{Entry: e, Err: err}
	}, func() {
		out <- SubmitResult{Err: ErrPoolClosed}
	})
	if err != nil {
		out <- SubmitResult{Err: err}
	}
	return out
}

func (s *Service) resolveTitle(ctx context.Context, url string) string {
	if s.titles == nil {
		return UnknownTitle
	}
	ctx, cancel := context.WithTimeout(ctx, s.lookupTimeout)
	defer cancel()

	title, err := s.titles.ResolveTitle(ctx, url)
	title = strings.TrimSpace(title)
	if err != nil || title == "" {
		if err != nil {
			s.log.Debug("title lookup failed", slog.String("url", url), slog.String("error", err.Error()))
		}
		if s.metrics != nil {
			s.metrics.IncTitleFallbacks()
		}
		return UnknownTitle
	}
	return title
}

// Curate moves the pending entry at index to the played or rejected history.
func (s *Service) Curate(index int, action Action) (CurationResult, error) {
	res := CurationResult{Action: action}
	switch action {
	case ActionPlay:
		e, playable, err := s.repo.AdvanceToPlayed(index)
		if err != nil {
			return res, err
		}
		res.Entry, res.Playable = e, playable
		if playable {
			res.VideoID, _ = ExtractVideoID(e.URL)
		} else {
			s.log.Warn("played entry has no video id", slog.String("url", e.URL))
		}
	case ActionReject:
		e, err := s.repo.AdvanceToRejected(index)
		if err != nil {
			return res, err
		}
		res.Entry = e
	default:
		return res, ErrUnknownAction
	}

	s.log.Info("entry curated",
		slog.String("action", action.String()),
		slog.String("id", string(res.Entry.ID)),
		slog.String("title", res.Entry.Title))
	if s.metrics != nil {
		s.metrics.IncCurations(action.String())
	}
	return res, nil
}

// PlayNext plays the head of the pending queue. ok is false when the queue is empty.
func (s *Service) PlayNext() (res CurationResult, ok bool, err error) {
	res, err = s.Curate(0, ActionPlay)
	if errors.Is(err, ErrIndexOutOfRange) {
		return CurationResult{}, false, nil
	}
	if err != nil {
		return res, false, err
	}
	return res, true, nil
}

// Search runs a best-effort video search bounded by the search timeout.
func (s *Service) Search(ctx context.Context, query string) []SearchResult {
	query = strings.TrimSpace(query)
	if query == "" || s.searcher == nil {
		return []SearchResult{}
	}
	ctx, cancel := context.WithTimeout(ctx, s.searchTimeout)
	defer cancel()

	if s.metrics != nil {
		s.metrics.IncSearches()
	}
	results := s.searcher.Search(ctx, query)
	if results == nil {
		results = []SearchResult{}
	}
	s.log.Debug("search finished", slog.String("query", query), slog.Int("results", len(results)))
	return results
}

// SearchAsync runs Search on the worker pool. A closed pool yields an empty result.
func (s *Service) SearchAsync(ctx context.Context, query string) <-chan []SearchResult {
	out := make(chan []SearchResult, 1)
	search := func() { out <- s.Search(ctx, query) }
	empty := func() { out <- []SearchResult{} }
	if err := s.pool.GoOrDrop(ctx, search, empty); err != nil {
		empty()
	}
	return out
}

// EstimatedWait is the display-only wait for the entry at pending position.
func (s *Service) EstimatedWait(position int) time.Duration {
	if position < 0 {
		position = 0
	}
	return time.Duration(position*s.avgSongMinutes) * time.Minute
}

// AverageSongMinutes returns the configured per-entry estimate.
func (s *Service) AverageSongMinutes() int {
	return s.avgSongMinutes
}

func (s *Service) countSubmission(source, outcome string) {
	if s.metrics == nil {
		return
	}
	if source == "" {
		source = "unknown"
	}
	s.metrics.IncSubmissions(source, outcome)
}

func orDefault(v, fallback string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return fallback
}
