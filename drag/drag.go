// Package drag implements the selection-to-drop lifecycle: the user marks a
// region on a PDF page, the selection becomes a draggable source, and a drop
// on the workspace panel yields the data from which the caller creates the
// excerpt object and its link as one atomic pair.
//
// The machine runs idle → selecting → ready → dragging → dropping → idle.
// Every transition invoked from the wrong phase is a silent no-op: UI code
// cannot always guarantee the current phase (a stray late event after
// cancellation is normal), so misuse is defined, not punished.
package drag

import (
	"github.com/wudi/excerptkit/coords"
	"github.com/wudi/excerptkit/geom"
	"github.com/wudi/excerptkit/observability"
)

// Phase is the lifecycle state.
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseSelecting Phase = "selecting"
	PhaseReady     Phase = "ready"
	PhaseDragging  Phase = "dragging"
	PhaseDropping  Phase = "dropping"
)

// MinSelectionFraction is the minimum selection extent per axis, as a
// fraction of the page dimension. Selections smaller than 1% in either axis
// are discarded at completion and the machine returns to idle.
const MinSelectionFraction = 0.01

// DropHoldMillis is the suggested duration for hosts to hold the dropping
// phase for their landing animation before calling FinishDrop. Purely
// presentational; nothing here depends on it.
const DropHoldMillis = 300

// Selection is the captured source of a drag: the page region the user
// marked, plus the screen geometry frozen at completion time.
type Selection struct {
	DocumentID string
	PageIndex  int
	Rect       geom.NormalizedRect
	// ScreenRect is the selection's screen rect at completion.
	ScreenRect geom.ScreenRect
	// SourcePoint is the fixed ghost-link origin: the right-center of the
	// selection at completion. The ghost link tracks the pointer from here
	// while dragging.
	SourcePoint geom.ScreenPoint
	// Text is whatever text the selection collaborator captured, possibly
	// empty for image-only pages.
	Text string
}

// DropTarget is the live validity of the current pointer position as a drop
// location.
type DropTarget struct {
	// IsValid is true while the pointer is over the workspace panel.
	IsValid bool
	// WorldPosition is the prospective drop position; meaningful only when
	// IsValid is true.
	WorldPosition geom.WorldPoint
}

// DropResult is handed to the caller on a successful drop. The caller must
// create the canvas object and the link together; an orphaned link or an
// unlinked object violates the model.
type DropResult struct {
	Selection     Selection
	WorldPosition geom.WorldPoint
}

// Controller is the state machine. It is not safe for concurrent use; the
// engine is single-threaded by contract.
type Controller struct {
	svc    *coords.Service
	logger observability.Logger

	phase Phase

	docID     string
	pageIndex int
	originX   float64
	originY   float64
	rect      geom.NormalizedRect

	selection Selection
	pointer   geom.ScreenPoint
	drop      DropTarget

	// progress is the 0→1 pickup animation value. Presentation only: phase
	// transitions never wait for it.
	progress float64
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger attaches a logger; the default discards everything.
func WithLogger(l observability.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewController builds a controller resolving drop positions through svc.
func NewController(svc *coords.Service, opts ...Option) *Controller {
	c := &Controller{
		svc:    svc,
		logger: observability.NopLogger{},
		phase:  PhaseIdle,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Phase returns the current lifecycle phase.
func (c *Controller) Phase() Phase { return c.phase }

// Selection returns the captured selection; meaningful from ready onwards.
func (c *Controller) Selection() Selection { return c.selection }

// SelectionRect returns the in-progress normalized rect while selecting.
func (c *Controller) SelectionRect() geom.NormalizedRect { return c.rect }

// DropTarget returns the current drop validity while dragging.
func (c *Controller) DropTarget() DropTarget { return c.drop }

// Pointer returns the last pointer position seen by UpdateDrag.
func (c *Controller) Pointer() geom.ScreenPoint { return c.pointer }

// StartSelection begins a selection at a normalized page point. Only valid
// from idle; in particular, starting a new selection while a drag is in
// flight is ignored: one sequence at a time.
func (c *Controller) StartSelection(documentID string, pageIndex int, x, y float64) {
	if c.phase != PhaseIdle {
		return
	}
	c.phase = PhaseSelecting
	c.docID = documentID
	c.pageIndex = pageIndex
	c.originX, c.originY = x, y
	c.rect = geom.NormalizedRect{X: x, Y: y}
}

// UpdateSelection recomputes the rect from the fixed origin corner and the
// current point. Dragging in any direction yields non-negative extent.
func (c *Controller) UpdateSelection(x, y float64) {
	if c.phase != PhaseSelecting {
		return
	}
	c.rect = geom.NormalizedRectFromCorners(c.originX, c.originY, x, y)
}

// CompleteSelection finishes the selection with its final normalized rect,
// its screen rect, and any captured text. A rect under MinSelectionFraction
// in either axis discards the interaction: the machine returns to idle and
// reports false, and no drag source exists.
func (c *Controller) CompleteSelection(rect geom.NormalizedRect, screenRect geom.ScreenRect, text string) bool {
	if c.phase != PhaseSelecting {
		return false
	}
	if rect.W < MinSelectionFraction || rect.H < MinSelectionFraction {
		c.logger.Debug("selection below minimum size discarded",
			observability.Float64("w", rect.W), observability.Float64("h", rect.H))
		c.reset()
		return false
	}
	c.phase = PhaseReady
	c.rect = rect
	c.selection = Selection{
		DocumentID:  c.docID,
		PageIndex:   c.pageIndex,
		Rect:        rect,
		ScreenRect:  screenRect,
		SourcePoint: geom.ScreenPoint{X: screenRect.Right(), Y: screenRect.Y + screenRect.H/2},
		Text:        text,
	}
	return true
}

// StartDrag begins tracking the pointer. Only valid from ready.
func (c *Controller) StartDrag(pointer geom.ScreenPoint) {
	if c.phase != PhaseReady {
		return
	}
	c.phase = PhaseDragging
	c.pointer = pointer
	c.progress = 0
	c.drop = DropTarget{}
	c.updateDropTarget(pointer)
}

// UpdateDrag runs at pointer-move frequency: it resolves which panel holds
// the pointer and, over the workspace, the prospective world drop position.
func (c *Controller) UpdateDrag(pointer geom.ScreenPoint) {
	if c.phase != PhaseDragging {
		return
	}
	c.pointer = pointer
	c.updateDropTarget(pointer)
}

func (c *Controller) updateDropTarget(pointer geom.ScreenPoint) {
	panel, ok := c.svc.ContainingPanel(pointer)
	if !ok || panel != geom.PanelWorkspace {
		c.drop = DropTarget{}
		return
	}
	world, ok := c.svc.ScreenToWorld(pointer)
	if !ok {
		c.drop = DropTarget{}
		return
	}
	c.drop = DropTarget{IsValid: true, WorldPosition: world}
}

// SetVisualProgress records the pickup animation value, clamped to [0, 1].
// It has no effect on transitions.
func (c *Controller) SetVisualProgress(p float64) {
	if p < 0 {
		p = 0
	}
	if p > 1 {
		p = 1
	}
	c.progress = p
}

// VisualProgress returns the pickup animation value.
func (c *Controller) VisualProgress() float64 { return c.progress }

// GhostEndpoints returns the transient preview link while dragging: from
// the selection's fixed source point to the live pointer. Ghost links are
// never cached; they change on every pointer move.
func (c *Controller) GhostEndpoints() (from, to geom.ScreenPoint, ok bool) {
	if c.phase != PhaseDragging {
		return geom.ScreenPoint{}, geom.ScreenPoint{}, false
	}
	return c.selection.SourcePoint, c.pointer, true
}

// CompleteDrag ends the drag. With a valid drop target it enters dropping
// and returns the drop data; the caller creates the object and link as one
// pair, then calls FinishDrop after its landing animation. With an invalid
// target it is equivalent to CancelDrag.
func (c *Controller) CompleteDrag() (DropResult, bool) {
	if c.phase != PhaseDragging {
		return DropResult{}, false
	}
	if !c.drop.IsValid {
		c.reset()
		return DropResult{}, false
	}
	c.phase = PhaseDropping
	return DropResult{Selection: c.selection, WorldPosition: c.drop.WorldPosition}, true
}

// FinishDrop ends the dropping hold and returns to idle. No-op elsewhere.
func (c *Controller) FinishDrop() {
	if c.phase != PhaseDropping {
		return
	}
	c.reset()
}

// CancelDrag aborts the sequence from any phase and clears all transient
// state. Safe and idempotent from any phase, including idle; hosts must
// route pointer-capture loss here so the machine cannot hang mid-sequence.
func (c *Controller) CancelDrag() { c.reset() }

// Reset is an alias for CancelDrag.
func (c *Controller) Reset() { c.reset() }

func (c *Controller) reset() {
	c.phase = PhaseIdle
	c.docID = ""
	c.pageIndex = 0
	c.originX, c.originY = 0, 0
	c.rect = geom.NormalizedRect{}
	c.selection = Selection{}
	c.pointer = geom.ScreenPoint{}
	c.drop = DropTarget{}
	c.progress = 0
}
