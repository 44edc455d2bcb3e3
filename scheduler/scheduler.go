// Package scheduler coalesces link invalidation into one recomputation pass
// per animation frame. Viewport moves, object drags, and link edits arriving
// within the same tick mark links dirty; when the host's next-frame callback
// fires, every dirty link's endpoints are recomputed once against the final
// state and cached. The cache is the single source of truth for renderers;
// only transient ghost links during an active drag bypass it.
package scheduler

import (
	"time"

	"github.com/wudi/excerptkit/anchor"
	"github.com/wudi/excerptkit/coords"
	"github.com/wudi/excerptkit/observability"
)

// FrameScheduler defers fn to the host environment's next animation frame.
// Implementations must run fn on the same goroutine that mutates the engine;
// the whole engine is single-threaded by contract.
type FrameScheduler interface {
	Schedule(fn func())
}

// LinkProvider is the tracker's read-only view of the current link set.
// Lookups happen at flush time, so a link deleted between invalidation and
// the frame simply disappears from the cache.
type LinkProvider interface {
	Link(id string) (anchor.Link, bool)
	LinkIDs() []string
}

// Subscribable is anything with the viewport-store subscription contract.
type Subscribable interface {
	Subscribe(fn func()) func()
}

// Tracker owns the dirty set and the endpoint cache.
type Tracker struct {
	svc    *coords.Service
	links  LinkProvider
	frames FrameScheduler
	logger observability.Logger

	cache          map[string]coords.LinkEndpoints
	dirty          map[string]struct{}
	frameScheduled bool
	closed         bool

	subNextID int
	subs      map[int]func()
	unsubs    []func()
}

// Option configures a Tracker.
type Option func(*Tracker)

// New builds a tracker over the coordinate service. The tracker immediately
// watches the service's object registry; call Watch to add the viewport
// stores (or any other invalidation source).
func New(svc *coords.Service, links LinkProvider, frames FrameScheduler, opts ...Option) *Tracker {
	t := &Tracker{
		svc:    svc,
		links:  links,
		frames: frames,
		logger: observability.NopLogger{},
		cache:  make(map[string]coords.LinkEndpoints),
		dirty:  make(map[string]struct{}),
		subs:   make(map[int]func()),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.unsubs = append(t.unsubs, svc.OnInvalidate(t.MarkAllDirty))
	return t
}

// WithLogger attaches a logger; the default discards everything.
func WithLogger(l observability.Logger) Option {
	return func(t *Tracker) {
		if l != nil {
			t.logger = l
		}
	}
}

// Watch subscribes the tracker to an invalidation source; any notification
// marks every known link dirty. Conservative, but links are few and a
// recomputation is cheap.
func (t *Tracker) Watch(src Subscribable) {
	t.unsubs = append(t.unsubs, src.Subscribe(t.MarkAllDirty))
}

// Close detaches from all sources. A frame callback that fires afterwards
// becomes a no-op; Close is idempotent.
func (t *Tracker) Close() {
	if t.closed {
		return
	}
	t.closed = true
	for _, unsub := range t.unsubs {
		unsub()
	}
	t.unsubs = nil
	t.dirty = make(map[string]struct{})
}

// MarkDirty queues specific links for recomputation on the next frame.
func (t *Tracker) MarkDirty(ids ...string) {
	if t.closed {
		return
	}
	for _, id := range ids {
		t.dirty[id] = struct{}{}
	}
	t.scheduleFrame()
}

// MarkAllDirty queues every known link.
func (t *Tracker) MarkAllDirty() {
	if t.closed {
		return
	}
	for _, id := range t.links.LinkIDs() {
		t.dirty[id] = struct{}{}
	}
	t.scheduleFrame()
}

// Forget drops a deleted link's cache entry immediately, without waiting
// for the next flush to notice the lookup miss.
func (t *Tracker) Forget(id string) {
	delete(t.cache, id)
	delete(t.dirty, id)
}

func (t *Tracker) scheduleFrame() {
	if t.frameScheduled || len(t.dirty) == 0 {
		return
	}
	t.frameScheduled = true
	t.frames.Schedule(t.flush)
}

// flush is the per-frame pass: recompute every dirty link once against the
// current state, then notify subscribers exactly once.
func (t *Tracker) flush() {
	t.frameScheduled = false
	if t.closed || len(t.dirty) == 0 {
		return
	}
	start := time.Now()
	dirty := len(t.dirty)
	for id := range t.dirty {
		link, ok := t.links.Link(id)
		if !ok {
			// Deleted between invalidation and the frame.
			delete(t.cache, id)
			continue
		}
		t.cache[id] = t.svc.CalculateLinkEndpoints(link)
	}
	t.dirty = make(map[string]struct{})
	t.logger.Debug("recomputed link endpoints",
		observability.Int(observability.MetricDirtyCount, dirty),
		observability.Float64(observability.MetricRecomputeTime, float64(time.Since(start).Microseconds())/1000))
	t.notify()
}

// ForceCalculateAll bypasses the dirty mechanism and synchronously
// recomputes every known link, for callers that need a guaranteed-fresh
// snapshot before any frame has fired (e.g. first paint).
func (t *Tracker) ForceCalculateAll() {
	for id := range t.cache {
		if _, ok := t.links.Link(id); !ok {
			delete(t.cache, id)
		}
	}
	for _, id := range t.links.LinkIDs() {
		link, ok := t.links.Link(id)
		if !ok {
			continue
		}
		t.cache[id] = t.svc.CalculateLinkEndpoints(link)
	}
	t.dirty = make(map[string]struct{})
	t.notify()
}

// Endpoints returns the cached geometry for one link.
func (t *Tracker) Endpoints(id string) (coords.LinkEndpoints, bool) {
	ep, ok := t.cache[id]
	return ep, ok
}

// AllEndpoints returns a copy of the cache. Renderers must treat the values
// as read-only either way.
func (t *Tracker) AllEndpoints() map[string]coords.LinkEndpoints {
	out := make(map[string]coords.LinkEndpoints, len(t.cache))
	for id, ep := range t.cache {
		out[id] = ep
	}
	return out
}

// SubscribeUpdates registers fn to run once after every completed
// recomputation pass. Returns an unregister func.
func (t *Tracker) SubscribeUpdates(fn func()) func() {
	id := t.subNextID
	t.subNextID++
	t.subs[id] = fn
	return func() { delete(t.subs, id) }
}

func (t *Tracker) notify() {
	for _, fn := range t.subs {
		fn()
	}
}

// ManualScheduler is a FrameScheduler driven by explicit Fire calls, for
// hosts without a frame loop and for tests.
type ManualScheduler struct {
	pending []func()
}

// Schedule queues fn for the next Fire.
func (m *ManualScheduler) Schedule(fn func()) { m.pending = append(m.pending, fn) }

// Pending reports how many callbacks are queued.
func (m *ManualScheduler) Pending() int { return len(m.pending) }

// Fire runs all queued callbacks, simulating one animation frame.
func (m *ManualScheduler) Fire() {
	fns := m.pending
	m.pending = nil
	for _, fn := range fns {
		fn()
	}
}
