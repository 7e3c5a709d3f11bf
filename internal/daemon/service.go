// Package daemon provides the long-running goal monitor service.
package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/rs/cors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/theirongolddev/sgp/internal/logger"
	"github.com/theirongolddev/sgp/internal/model"
	"github.com/theirongolddev/sgp/internal/pipeline"
)

// GoalLister fetches the current goal list.
type GoalLister interface {
	List(ctx context.Context) ([]model.Goal, error)
}

// Recorder persists summaries. It is optional.
type Recorder interface {
	Record(source string, s model.Summary, at time.Time) (model.Snapshot, error)
}

// Config controls the daemon runtime behavior.
type Config struct {
	APIURL         string
	Category       string
	Interval       time.Duration
	Addr           string
	EventsBuffer   int
	AllowedOrigins []string
}

// Snapshot is a compact goal summary for status/event payloads.
type Snapshot struct {
	At                     time.Time `json:"at"`
	TotalGoals             int       `json:"total_goals"`
	CompletedGoals         int       `json:"completed_goals"`
	ActiveGoals            int       `json:"active_goals"`
	TotalSaved             float64   `json:"total_saved"`
	TotalTarget            float64   `json:"total_target"`
	OverallPercent         int       `json:"overall_percent"`
	MostCommonCategory     string    `json:"most_common_category"`
	HighestTarget          float64   `json:"highest_target"`
	LowestSaved            float64   `json:"lowest_saved"`
	AverageProgressPercent int       `json:"average_progress_percent"`
	CompletionRate         float64   `json:"completion_rate"`
}

// Delta captures snapshot deltas between polls.
type Delta struct {
	Goals          int     `json:"goals"`
	CompletedGoals int     `json:"completed_goals"`
	TotalSaved     float64 `json:"total_saved"`
	TotalTarget    float64 `json:"total_target"`
	OverallPercent int     `json:"overall_percent"`
}

func (d Delta) isZero() bool {
	return d == Delta{}
}

// Event is emitted whenever the goal summary changes.
type Event struct {
	ID        int64     `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Snapshot  Snapshot  `json:"snapshot"`
	Delta     Delta     `json:"delta"`
}

// Event types.
const (
	EventSnapshot   = "snapshot"
	EventGoalsDelta = "goals_delta"
)

// Status is served at /v1/status.
type Status struct {
	StartedAt       time.Time `json:"started_at"`
	LastPollAt      time.Time `json:"last_poll_at"`
	PollIntervalSec int       `json:"poll_interval_sec"`
	PollCount       int64     `json:"poll_count"`
	APIURL          string    `json:"api_url"`
	Category        string    `json:"category,omitempty"`
	Summary         Snapshot  `json:"summary"`
	LastError       string    `json:"last_error,omitempty"`
	EventCount      int       `json:"event_count"`
	SubscriberCount int       `json:"subscriber_count"`
}

// Service provides the daemon runtime and HTTP API.
type Service struct {
	cfg      Config
	goals    GoalLister
	recorder Recorder
	log      *zap.Logger
	hub      *hub

	mu          sync.RWMutex
	startedAt   time.Time
	lastPollAt  time.Time
	pollCount   int64
	lastError   string
	hasSnapshot bool
	snapshot    Snapshot
}

// New returns a new daemon service. recorder may be nil.
func New(cfg Config, goals GoalLister, recorder Recorder) *Service {
	if cfg.Interval < 2*time.Second {
		cfg.Interval = 30 * time.Second
	}
	if cfg.EventsBuffer < 1 {
		cfg.EventsBuffer = 200
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8787"
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"*"}
	}

	return &Service{
		cfg:       cfg,
		goals:     goals,
		recorder:  recorder,
		log:       logger.Get().Named("daemon"),
		hub:       newHub(cfg.EventsBuffer),
		startedAt: time.Now(),
	}
}

// Handler returns the HTTP API wrapped in CORS.
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /v1/status", s.handleStatus)
	mux.HandleFunc("GET /v1/events", s.handleEvents)
	mux.HandleFunc("GET /v1/stream", s.handleStream)

	c := cors.New(cors.Options{
		AllowedOrigins: s.cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Last-Event-ID"},
	})
	return c.Handler(mux)
}

// Run serves the HTTP API and polls until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("daemon listen: %w", err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Service) Serve(ctx context.Context, ln net.Listener) error {
	server := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("daemon http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		s.pollOnce(gctx)

		ticker := time.NewTicker(s.cfg.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				s.pollOnce(gctx)
			}
		}
	})

	return g.Wait()
}

// pollOnce fetches goals and publishes an event when the summary moved.
// A failed poll keeps the previous snapshot.
func (s *Service) pollOnce(ctx context.Context) {
	goals, err := s.goals.List(ctx)
	now := time.Now()

	s.mu.Lock()
	s.lastPollAt = now
	s.pollCount++
	if err != nil {
		if ctx.Err() == nil {
			s.lastError = err.Error()
		}
		s.mu.Unlock()
		if ctx.Err() == nil {
			s.log.Warn("poll failed", zap.Error(err))
		}
		return
	}

	summary := pipeline.Aggregate(pipeline.FilterByCategory(goals, s.cfg.Category))
	snap := snapshotFromSummary(summary, now)
	prev, seen := s.snapshot, s.hasSnapshot
	s.snapshot, s.hasSnapshot = snap, true
	s.lastError = ""
	s.mu.Unlock()

	typ, delta := EventSnapshot, Delta{}
	if seen {
		delta = diffSnapshots(prev, snap)
		if delta.isZero() {
			return
		}
		typ = EventGoalsDelta
	}

	ev := s.hub.publish(typ, now, snap, delta)
	s.log.Info("summary changed",
		zap.Int64("event", ev.ID),
		zap.String("type", ev.Type),
		zap.Int("goals", snap.TotalGoals),
		zap.Int("overall_percent", snap.OverallPercent))

	if s.recorder != nil {
		if _, err := s.recorder.Record("daemon", summary, now); err != nil {
			s.log.Warn("recording snapshot failed", zap.Error(err))
		}
	}
}

func snapshotFromSummary(sum model.Summary, at time.Time) Snapshot {
	return Snapshot{
		At:                     at,
		TotalGoals:             sum.TotalGoals,
		CompletedGoals:         sum.CompletedGoals,
		ActiveGoals:            sum.ActiveGoals,
		TotalSaved:             sum.TotalSaved,
		TotalTarget:            sum.TotalTarget,
		OverallPercent:         sum.OverallPercent,
		MostCommonCategory:     sum.MostCommonCategory,
		HighestTarget:          sum.HighestTarget,
		LowestSaved:            sum.LowestSaved,
		AverageProgressPercent: sum.AverageProgressPercent,
		CompletionRate:         sum.CompletionRate(),
	}
}

func diffSnapshots(prev, curr Snapshot) Delta {
	return Delta{
		Goals:          curr.TotalGoals - prev.TotalGoals,
		CompletedGoals: curr.CompletedGoals - prev.CompletedGoals,
		TotalSaved:     curr.TotalSaved - prev.TotalSaved,
		TotalTarget:    curr.TotalTarget - prev.TotalTarget,
		OverallPercent: curr.OverallPercent - prev.OverallPercent,
	}
}

func (s *Service) status() Status {
	events, subs := s.hub.counts()

	s.mu.RLock()
	defer s.mu.RUnlock()
	return Status{
		StartedAt:       s.startedAt,
		LastPollAt:      s.lastPollAt,
		PollIntervalSec: int(s.cfg.Interval.Seconds()),
		PollCount:       s.pollCount,
		APIURL:          s.cfg.APIURL,
		Category:        s.cfg.Category,
		Summary:         s.snapshot,
		LastError:       s.lastError,
		EventCount:      events,
		SubscriberCount: subs,
	}
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Service) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, s.status())
}

// handleEvents lists retained events, optionally only those after ?since=ID.
func (s *Service) handleEvents(w http.ResponseWriter, r *http.Request) {
	since, err := parseEventID(r.URL.Query().Get("since"))
	if err != nil {
		http.Error(w, "invalid since", http.StatusBadRequest)
		return
	}
	writeJSON(w, s.hub.since(since))
}

// handleStream sends server-sent events. A client reconnecting with
// Last-Event-ID first receives the retained events it missed; a new client
// receives the current snapshot.
func (s *Service) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	lastID, err := parseEventID(r.Header.Get("Last-Event-ID"))
	if err != nil {
		http.Error(w, "invalid Last-Event-ID", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	id, ch := s.hub.subscribe(16)
	defer s.hub.unsubscribe(id)

	if lastID > 0 {
		for _, ev := range s.hub.since(lastID) {
			writeSSE(w, ev)
			lastID = ev.ID
		}
	} else {
		writeSSE(w, Event{Type: EventSnapshot, Timestamp: time.Now(), Snapshot: s.status().Summary})
	}
	flusher.Flush()

	keepalive := time.NewTicker(25 * time.Second)
	defer keepalive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-keepalive.C:
			_, _ = fmt.Fprint(w, ": keepalive\n\n")
			flusher.Flush()
		case ev := <-ch:
			if ev.ID <= lastID {
				continue
			}
			writeSSE(w, ev)
			lastID = ev.ID
			flusher.Flush()
		}
	}
}

func parseEventID(raw string) (int64, error) {
	if raw == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 0 {
		return 0, fmt.Errorf("invalid event id %q", raw)
	}
	return id, nil
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeSSE(w http.ResponseWriter, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	if ev.ID > 0 {
		_, _ = fmt.Fprintf(w, "id: %d\n", ev.ID)
	}
	_, _ = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, data)
}

// FetchStatus queries a running daemon's /v1/status.
func FetchStatus(ctx context.Context, addr string) (Status, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	var st Status
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://"+addr+"/v1/status", nil)
	if err != nil {
		return st, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return st, fmt.Errorf("unreachable: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return st, fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		return st, fmt.Errorf("malformed response: %w", err)
	}
	return st, nil
}
