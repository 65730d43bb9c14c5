package jukebox

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"jukebox/internal/platform/logger"
	"jukebox/internal/platform/metrics"

	"github.com/go-co-op/gocron/v2"
	"github.com/r3labs/sse/v2"
)

// NowPlayingStream is the SSE stream id carrying NowPlaying payloads.
const NowPlayingStream = "current"

// Broadcaster pushes the now-playing selection to connected browsers.
type Broadcaster struct {
	server  *sse.Server
	log     *slog.Logger
	metrics *metrics.Metrics

	mu      sync.Mutex
	last    []byte
	version uint64 // newest snapshot version published
}

// NewBroadcaster creates the SSE server and the now-playing stream. Metrics may be nil.
func NewBroadcaster(log *slog.Logger, m *metrics.Metrics) *Broadcaster {
	if log == nil {
		log = logger.Discard()
	}
	server := sse.New()
	server.AutoReplay = false
	server.CreateStream(NowPlayingStream)

	b := &Broadcaster{server: server, log: log, metrics: m}
	if m != nil {
		server.OnSubscribe = func(string, *sse.Subscriber) { m.IncSSEClients() }
		server.OnUnsubscribe = func(string, *sse.Subscriber) { m.DecSSEClients() }
	}
	return b
}

// Publish sends np to every subscriber when it differs from the last payload.
func (b *Broadcaster) Publish(np NowPlaying) {
	data, err := encodeNowPlaying(np)
	if err != nil {
		b.log.Error("encode now playing", slog.String("error", err.Error()))
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.publishLocked(data, np.Title)
}

// Observe is a ChangeFunc that republishes the snapshot's now-playing value.
// Snapshots older than one already published are dropped, so observers of
// racing mutations cannot roll the stream back. Version zero always applies.
func (b *Broadcaster) Observe(s Snapshot) {
	np := s.NowPlaying()
	data, err := encodeNowPlaying(np)
	if err != nil {
		b.log.Error("encode now playing", slog.String("error", err.Error()))
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if s.Version != 0 {
		if s.Version <= b.version {
			b.log.Debug("stale snapshot dropped",
				slog.Uint64("version", s.Version),
				slog.Uint64("published", b.version))
			return
		}
		b.version = s.Version
	}
	b.publishLocked(data, np.Title)
}

// publishLocked sends data unless it repeats the last payload. Holding b.mu
// across the send keeps the stream in version order. Caller must hold b.mu.
func (b *Broadcaster) publishLocked(data []byte, title string) {
	if bytes.Equal(data, b.last) {
		return
	}
	b.last = data
	b.server.Publish(NowPlayingStream, &sse.Event{Data: data})
	b.log.Debug("now playing published", slog.String("title", title))
}

// Heartbeat resends the last payload so idle proxies keep the stream open and
// late subscribers catch up.
func (b *Broadcaster) Heartbeat() {
	b.mu.Lock()
	data := b.last
	b.mu.Unlock()
	if data == nil {
		return
	}
	b.server.Publish(NowPlayingStream, &sse.Event{Data: data})
}

// ServeHTTP serves the event stream. Requests without a stream parameter are
// pointed at the now-playing stream.
func (b *Broadcaster) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("stream") == "" {
		q := r.URL.Query()
		q.Set("stream", NowPlayingStream)
		r.URL.RawQuery = q.Encode()
	}
	b.server.ServeHTTP(w, r)
}

// Close disconnects every subscriber.
func (b *Broadcaster) Close() {
	b.server.Close()
}

func encodeNowPlaying(np NowPlaying) ([]byte, error) {
	return json.Marshal(np)
}

// SetupJobs schedules the stream heartbeat and the pending-entries gauge refresh.
// The caller starts and shuts down the returned scheduler.
func SetupJobs(interval time.Duration, b *Broadcaster, repo Repository, m *metrics.Metrics) (gocron.Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}
	if interval <= 0 {
		interval = 15 * time.Second
	}

	if _, err := s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(b.Heartbeat),
	); err != nil {
		return nil, err
	}
	if m != nil {
		if _, err := s.NewJob(
			gocron.DurationJob(5*time.Second),
			gocron.NewTask(func() { m.SetPending(repo.PendingCount()) }),
		); err != nil {
			return nil, err
		}
	}
	return s, nil
}
