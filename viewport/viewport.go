// Package viewport holds the per-panel transform state: scroll, zoom, and
// panel screen bounds for the PDF view, and the pan/zoom camera for the
// workspace view. Each store is the single source of truth for one panel's
// screen-to-content mapping and notifies subscribers synchronously when any
// input changes.
package viewport

// Default transform limits. They are fields on the stores so callers can
// widen or narrow them per instance.
const (
	// DefaultPageGap is the vertical spacing in rendered pixels between
	// stacked PDF pages.
	DefaultPageGap = 10.0

	// DefaultMinScale and DefaultMaxScale bound the workspace zoom factor.
	DefaultMinScale = 0.1
	DefaultMaxScale = 10.0
)

// notifier implements the subscribe/notify contract shared by both stores.
// Subscribing returns an unregister func; notification order is unspecified.
type notifier struct {
	nextID    int
	listeners map[int]func()
}

func (n *notifier) subscribe(fn func()) func() {
	if n.listeners == nil {
		n.listeners = make(map[int]func())
	}
	id := n.nextID
	n.nextID++
	n.listeners[id] = fn
	return func() { delete(n.listeners, id) }
}

func (n *notifier) notify() {
	for _, fn := range n.listeners {
		fn()
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
