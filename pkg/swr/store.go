package swr

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/simplelru"
)

// State is the lifecycle state of one key.
type State int

const (
	Empty    State = iota // never fetched or seeded
	Fetching              // a fetch is in flight
	Fresh                 // holds the result of the last applied fetch or seed
	Failed                // the last applied fetch failed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Empty:
		return "empty"
	case Fetching:
		return "fetching"
	case Fresh:
		return "fresh"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// ErrClosed is returned by operations on a closed Store.
var ErrClosed = errors.New("swr: store closed")

// Fetcher loads the value for key. The context is cancelled when the fetch
// is superseded by ForceRevalidate or the store is closed.
type Fetcher[V any] func(ctx context.Context, key string) (V, error)

// Snapshot is a point-in-time view of one key.
type Snapshot[V any] struct {
	Key      string
	Value    V
	HasValue bool
	State    State

	// Err is the error of the last applied fetch, if it failed.
	Err error

	// FetchedAt is when Value was stored.
	FetchedAt time.Time

	// Stale is set by Invalidate and cleared by the next applied fetch.
	Stale bool

	// Seq is the sequence number of the fetch that produced Value.
	// Seeded values have Seq 0.
	Seq uint64
}

type flight struct {
	seq    uint64
	cancel context.CancelFunc
	done   chan struct{}
}

type entry[V any] struct {
	key       string
	value     V
	hasValue  bool
	err       error
	fetchedAt time.Time
	stale     bool
	valueSeq  uint64
	applied   uint64
	flight    *flight
	subs      map[uint64]func(Snapshot[V])
}

func (e *entry[V]) snapshot() Snapshot[V] {
	snap := Snapshot[V]{
		Key:       e.key,
		Value:     e.value,
		HasValue:  e.hasValue,
		Err:       e.err,
		FetchedAt: e.fetchedAt,
		Stale:     e.stale,
		Seq:       e.valueSeq,
	}
	switch {
	case e.flight != nil:
		snap.State = Fetching
	case e.err != nil:
		snap.State = Failed
	case e.hasValue:
		snap.State = Fresh
	default:
		snap.State = Empty
	}
	return snap
}

// Store is a stale-while-revalidate cache. It is safe for concurrent use.
type Store[V any] struct {
	fetch  Fetcher[V]
	opts   options
	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	entries map[string]*entry[V]
	recent  *simplelru.LRU[string, struct{}]
	active  string
	seq     uint64
	subID   uint64
	closed  bool
}

// New creates a Store that loads missing values with fetch.
func New[V any](fetch Fetcher[V], opts ...Option) *Store[V] {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	logger := o.logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Store[V]{
		fetch:   fetch,
		opts:    o,
		logger:  logger.With("component", "swr"),
		entries: make(map[string]*entry[V]),
	}
	s.ctx, s.cancel = context.WithCancel(o.ctx)

	// The index only orders keys; entries live in s.entries. Busy entries
	// that fall out of the index stay put and rejoin it on their next use.
	recent, err := simplelru.NewLRU[string, struct{}](o.maxEntries, s.onEvict)
	if err != nil {
		panic(err) // unreachable: maxEntries is always positive
	}
	s.recent = recent
	return s
}

// onEvict runs with s.mu held, from inside recent.Add.
func (s *Store[V]) onEvict(key string, _ struct{}) {
	e, ok := s.entries[key]
	if !ok || s.busyLocked(e) {
		return
	}
	delete(s.entries, key)
	s.logger.Debug("evicted", "key", key)
}

func (s *Store[V]) busyLocked(e *entry[V]) bool {
	return e.flight != nil || len(e.subs) > 0 || e.key == s.active
}

// releaseLocked drops an entry that stopped being busy after it had
// already fallen out of the index.
func (s *Store[V]) releaseLocked(e *entry[V]) {
	if s.entries[e.key] == e && !s.recent.Contains(e.key) && !s.busyLocked(e) {
		delete(s.entries, e.key)
		s.logger.Debug("evicted", "key", e.key)
	}
}

// entryLocked returns the entry for key, creating an Empty one if needed.
func (s *Store[V]) entryLocked(key string) *entry[V] {
	e, ok := s.entries[key]
	if !ok {
		e = &entry[V]{key: key}
		s.entries[key] = e
	}
	s.recent.Add(key, struct{}{})
	return e
}

// Get returns the value for key. If the key holds a value, or its last
// fetch failed, Get returns at once. Otherwise it starts a fetch (unless
// one is running) and waits for it or for ctx.
//
// A held value is returned with a nil error even when the last fetch
// failed; the failure is reported in Snapshot.Err. Without a value, the
// fetch error is returned.
func (s *Store[V]) Get(ctx context.Context, key string, opts ...GetOption) (Snapshot[V], error) {
	var o getOptions
	for _, opt := range opts {
		opt(&o)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return Snapshot[V]{Key: key}, ErrClosed
	}
	e := s.entryLocked(key)

	if e.hasValue || (e.err != nil && e.flight == nil) {
		if (o.revalidate || e.stale) && e.flight == nil {
			s.startLocked(e)
		}
		snap := e.snapshot()
		s.mu.Unlock()
		if !snap.HasValue {
			return snap, snap.Err
		}
		return snap, nil
	}

	if e.flight == nil {
		s.startLocked(e)
	}
	s.mu.Unlock()

	snap, err := s.await(ctx, e)
	if err != nil {
		return snap, err
	}
	if !snap.HasValue {
		return snap, snap.Err
	}
	return snap, nil
}

// Peek returns the current snapshot for key without fetching.
func (s *Store[V]) Peek(key string) Snapshot[V] {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[key]; ok {
		return e.snapshot()
	}
	return Snapshot[V]{Key: key}
}

// Seed stores value for key without fetching. It only primes keys that
// hold no value and have no fetch in flight, and reports whether it did.
func (s *Store[V]) Seed(key string, value V) bool {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false
	}
	e := s.entryLocked(key)
	if e.hasValue || e.flight != nil {
		s.mu.Unlock()
		return false
	}
	e.value = value
	e.hasValue = true
	e.err = nil
	e.stale = false
	e.fetchedAt = s.opts.now()
	notify := s.notifyLocked(e)
	s.mu.Unlock()

	notify()
	return true
}

// Revalidate starts a background fetch for key. It is a no-op, returning
// false, when a fetch for key is already in flight.
func (s *Store[V]) Revalidate(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	e := s.entryLocked(key)
	if e.flight != nil {
		return false
	}
	s.startLocked(e)
	return true
}

// ForceRevalidate starts a new fetch for key even if one is in flight.
// The running fetch is cancelled and its result will be discarded.
func (s *Store[V]) ForceRevalidate(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	e := s.entryLocked(key)
	if f := e.flight; f != nil {
		s.logger.Debug("superseding fetch", "key", key, "seq", f.seq)
		f.cancel()
	}
	s.startLocked(e)
}

// Invalidate marks key stale. The value stays readable. A key that is
// active or watched is revalidated immediately; any other key is
// refreshed by its next Get.
func (s *Store[V]) Invalidate(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok || s.closed {
		return
	}
	e.stale = true
	if e.flight == nil && (key == s.active || len(e.subs) > 0) {
		s.startLocked(e)
	}
}

// Prefetch warms key and waits for the fetch it started or joined.
// Keys that already hold a fresh value are left alone unless priority is
// set, in which case they are refreshed as well. The returned error is
// the fetch error, or ctx's error if ctx ends first.
func (s *Store[V]) Prefetch(ctx context.Context, key string, priority bool) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	e := s.entryLocked(key)
	switch {
	case e.flight != nil:
	case !e.hasValue, e.stale, priority:
		s.startLocked(e)
	default:
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	snap, err := s.await(ctx, e)
	if err != nil {
		return err
	}
	return snap.Err
}

// SetActive records the key of the view currently shown. Focus and
// Reconnect revalidate it.
func (s *Store[V]) SetActive(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.active
	s.active = key
	if key != "" {
		s.entryLocked(key)
	}
	if e, ok := s.entries[prev]; ok && prev != key {
		s.releaseLocked(e)
	}
}

// Active returns the active key.
func (s *Store[V]) Active() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Focus signals that the session regained focus.
func (s *Store[V]) Focus() bool {
	if !s.opts.onFocus {
		return false
	}
	return s.revalidateActive("focus")
}

// Reconnect signals that the network connection came back.
func (s *Store[V]) Reconnect() bool {
	if !s.opts.onReconnect {
		return false
	}
	return s.revalidateActive("reconnect")
}

func (s *Store[V]) revalidateActive(trigger string) bool {
	key := s.Active()
	if key == "" {
		return false
	}
	started := s.Revalidate(key)
	s.logger.Debug("revalidate trigger", "trigger", trigger, "key", key, "started", started)
	return started
}

// Subscribe registers fn to receive a snapshot every time key's value or
// error changes. fn runs on the goroutine that applied the change and must
// not block. The returned function removes the subscription.
func (s *Store[V]) Subscribe(key string, fn func(Snapshot[V])) (cancel func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.entryLocked(key)
	if e.subs == nil {
		e.subs = make(map[uint64]func(Snapshot[V]))
	}
	s.subID++
	id := s.subID
	e.subs[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(e.subs, id)
			s.releaseLocked(e)
		})
	}
}

// Len returns the number of keys held.
func (s *Store[V]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Close cancels running fetches and waits for them to finish.
func (s *Store[V]) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.cancel()
	s.wg.Wait()
}

// startLocked launches a fetch for e and makes it the key's current one.
func (s *Store[V]) startLocked(e *entry[V]) {
	s.seq++
	ctx, cancel := context.WithCancel(s.ctx)
	f := &flight{seq: s.seq, cancel: cancel, done: make(chan struct{})}
	e.flight = f

	s.logger.Debug("fetch started", "key", e.key, "seq", f.seq)
	s.wg.Add(1)
	go s.run(ctx, e, f)
}

func (s *Store[V]) run(ctx context.Context, e *entry[V], f *flight) {
	defer s.wg.Done()
	defer f.cancel()

	start := s.opts.now()
	value, err := s.fetch(ctx, e.key)

	s.mu.Lock()
	if e.flight != f || f.seq <= e.applied {
		s.mu.Unlock()
		close(f.done)
		s.logger.Debug("discarded superseded fetch", "key", e.key, "seq", f.seq)
		return
	}
	e.flight = nil
	e.applied = f.seq
	if err != nil {
		e.err = err
		s.logger.Warn("fetch failed", "key", e.key, "seq", f.seq, "err", err)
	} else {
		e.value = value
		e.hasValue = true
		e.valueSeq = f.seq
		e.err = nil
		e.stale = false
		e.fetchedAt = s.opts.now()
		s.logger.Debug("fetch applied", "key", e.key, "seq", f.seq, "duration", s.opts.now().Sub(start))
	}
	if s.entries[e.key] == e {
		s.recent.Add(e.key, struct{}{})
	}
	notify := s.notifyLocked(e)
	s.mu.Unlock()

	close(f.done)
	notify()
}

// notifyLocked captures e's subscribers and snapshot for delivery after
// the lock is released.
func (s *Store[V]) notifyLocked(e *entry[V]) func() {
	if len(e.subs) == 0 {
		return func() {}
	}
	snap := e.snapshot()
	fns := make([]func(Snapshot[V]), 0, len(e.subs))
	for _, fn := range e.subs {
		fns = append(fns, fn)
	}
	return func() {
		for _, fn := range fns {
			fn(snap)
		}
	}
}

// await waits until e has no fetch in flight and returns its snapshot.
// A fetch that is superseded while waiting is followed by the new one.
func (s *Store[V]) await(ctx context.Context, e *entry[V]) (Snapshot[V], error) {
	for {
		s.mu.Lock()
		f := e.flight
		if f == nil {
			snap := e.snapshot()
			s.mu.Unlock()
			return snap, nil
		}
		s.mu.Unlock()

		select {
		case <-f.done:
		case <-ctx.Done():
			return Snapshot[V]{Key: e.key}, ctx.Err()
		}
	}
}
