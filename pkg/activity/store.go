package activity

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/getmockd/gqldevkit/internal/fanout"
	"github.com/getmockd/gqldevkit/pkg/graphql"
	"github.com/getmockd/gqldevkit/pkg/logging"
	"github.com/getmockd/gqldevkit/pkg/metrics"
)

// DefaultMaxRecords is the retention used when NewStore is given a
// non-positive capacity.
const DefaultMaxRecords = 1000

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the operational logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Store) { s.log = logging.OrNop(log) }
}

// WithMetrics attaches Prometheus collectors.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Store) { s.metrics = m }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithSubscriberBuffer sets how many events a subscriber may have queued
// before it is dropped.
func WithSubscriberBuffer(n int) Option {
	return func(s *Store) { s.bufSize = n }
}

// Subscription is a live feed of store events.
type Subscription = fanout.Subscription[Event]

// Store is a bounded in-memory activity log.
type Store struct {
	mu         sync.RWMutex
	records    []*Record
	maxRecords int
	nextSeq    uint64

	hub     *fanout.Hub[Event]
	bufSize int

	log     *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewStore creates a store that retains at most maxRecords records, evicting
// the oldest first.
func NewStore(maxRecords int, opts ...Option) *Store {
	if maxRecords <= 0 {
		maxRecords = DefaultMaxRecords
	}
	s := &Store{
		records:    make([]*Record, 0, maxRecords),
		maxRecords: maxRecords,
		log:        logging.Nop(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.hub = fanout.NewHub[Event](s.bufSize, func() {
		s.metrics.ObserveSubscriberDropped(metrics.StreamActivity)
	})
	return s
}

// Begin appends a pending record for req and returns it. The record is
// visible to readers and subscribers before Begin returns.
func (s *Store) Begin(req *graphql.Request) *Record {
	rec := &Record{
		ID:      uuid.NewString(),
		Request: marshalRequest(req),
		State:   StatePending,
	}
	if op, err := graphql.DescribeOperation(req); err == nil {
		rec.Operation = op
	} else {
		s.log.Debug("could not describe operation", "error", err)
	}

	s.mu.Lock()
	s.nextSeq++
	rec.Sequence = s.nextSeq
	rec.StartedAt = s.now()

	evicted := 0
	if len(s.records) >= s.maxRecords {
		evicted = len(s.records) - s.maxRecords + 1
		n := copy(s.records, s.records[evicted:])
		clear(s.records[n:])
		s.records = s.records[:n]
	}
	s.records = append(s.records, rec)
	s.hub.Publish(Event{Type: EventStarted, Record: rec})
	s.mu.Unlock()

	s.metrics.ObserveActivityStarted()
	s.metrics.ObserveActivityEvicted(evicted)
	return rec
}

// Complete publishes the final form of pending. resp is stored whenever it
// is non-nil. A nil err marks the record succeeded; a non-nil err marks it
// failed. If pending has
// already been evicted the completed record is still returned and
// published, but not retained.
func (s *Store) Complete(pending *Record, resp *graphql.Response, err error) *Record {
	if pending == nil {
		return nil
	}

	s.mu.Lock()
	done := *pending
	ended := s.now()
	done.EndedAt = &ended
	done.DurationMs = ended.Sub(pending.StartedAt).Milliseconds()
	done.Response = marshalResponse(resp)
	if err != nil {
		done.State = StateFailed
		done.Error = err.Error()
	} else {
		done.State = StateSucceeded
	}

	if i := s.indexLocked(pending.ID); i >= 0 {
		s.records[i] = &done
	}
	s.hub.Publish(Event{Type: EventCompleted, Record: &done})
	s.mu.Unlock()

	s.metrics.ObserveActivityCompleted(string(done.State), ended.Sub(pending.StartedAt))
	return &done
}

// Get returns the record with the given ID, or nil.
func (s *Store) Get(id string) *Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i := s.indexLocked(id); i >= 0 {
		return s.records[i]
	}
	return nil
}

// List returns records in append order, filtered by f.
func (s *Store) List(f Filter) ([]*Record, error) {
	s.mu.RLock()
	snapshot := make([]*Record, len(s.records))
	copy(snapshot, s.records)
	s.mu.RUnlock()

	return f.apply(snapshot)
}

// Count returns the number of retained records.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Clear drops every retained record. Sequence numbers keep increasing.
func (s *Store) Clear() {
	s.mu.Lock()
	s.records = make([]*Record, 0, s.maxRecords)
	s.mu.Unlock()
}

// Subscribe returns the retained records and a subscription that delivers
// every event published after them.
func (s *Store) Subscribe() ([]*Record, *Subscription) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := make([]*Record, len(s.records))
	copy(history, s.records)
	return history, s.hub.Subscribe()
}

// Close cancels every subscription.
func (s *Store) Close() {
	s.hub.Close()
}

// indexLocked searches from the newest record, where completions usually land.
func (s *Store) indexLocked(id string) int {
	for i := len(s.records) - 1; i >= 0; i-- {
		if s.records[i].ID == id {
			return i
		}
	}
	return -1
}

func marshalRequest(req *graphql.Request) json.RawMessage {
	if req == nil {
		return json.RawMessage("null")
	}
	data, err := json.Marshal(req)
	if err != nil {
		// Variables that cannot be encoded still leave the query visible.
		data, _ = json.Marshal(map[string]any{
			"query":         req.Query,
			"operationName": req.OperationName,
			"encodeError":   err.Error(),
		})
	}
	return data
}

func marshalResponse(resp *graphql.Response) json.RawMessage {
	if resp == nil {
		return nil
	}
	data, err := json.Marshal(resp)
	if err != nil {
		data, _ = json.Marshal(map[string]string{"encodeError": err.Error()})
	}
	return data
}
