// Package coords converts points, rectangles, and anchors between the four
// coordinate spaces (screen, PDF page, world, panel) given the two viewport
// stores, and resolves polymorphic anchors to concrete screen points.
//
// Every operation returns (value, ok). A false ok means the geometry is
// unresolvable right now (panel not mounted, page dimensions unknown,
// object not registered) and the caller must not render; nothing here
// panics or fabricates a fallback position.
package coords

import (
	"github.com/wudi/excerptkit/anchor"
	"github.com/wudi/excerptkit/geom"
	"github.com/wudi/excerptkit/observability"
	"github.com/wudi/excerptkit/viewport"
)

// OffscreenSentinel is the screen point substituted for an unresolved link
// endpoint. It sits far outside any plausible viewport so a renderer that
// ignores the visibility flags draws nothing near the origin by accident.
// It is never meaningful as a position.
var OffscreenSentinel = geom.ScreenPoint{X: -1e5, Y: -1e5}

// ObjectGeometry is the registry's view of one live canvas object.
type ObjectGeometry struct {
	Position geom.WorldPoint
	Size     geom.Size
}

// LinkEndpoints is the resolved screen geometry of one link.
type LinkEndpoints struct {
	Source geom.ScreenPoint
	Target geom.ScreenPoint
	// IsVisible is true only when both anchors resolved.
	IsVisible bool
	// SourceInPanel and TargetInPanel report whether each resolved endpoint
	// falls inside either known panel. Renderers use them to fade or hide
	// links whose ends scrolled out of view.
	SourceInPanel bool
	TargetInPanel bool
}

// RectVisibility is a rectangle transformed to screen space together with
// its relation to the owning panel's bounds.
type RectVisibility struct {
	Rect geom.ScreenRect
	// FullyVisible means all four edges lie inside the panel rect.
	FullyVisible bool
	// PartiallyVisible means the rect overlaps the panel rect at all.
	PartiallyVisible bool
}

// Service is the transform engine. It is explicitly constructed with both
// viewport stores injected; it holds no hidden global state beyond the
// canvas-object registry it owns.
type Service struct {
	pdf *viewport.PdfViewport
	ws  *viewport.WorkspaceViewport

	objects map[string]ObjectGeometry

	invalidateNextID int
	invalidateFns    map[int]func()

	logger observability.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLogger attaches a logger; the default discards everything.
func WithLogger(l observability.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewService builds a coordinate service over the two viewport stores.
func NewService(pdf *viewport.PdfViewport, ws *viewport.WorkspaceViewport, opts ...Option) *Service {
	s := &Service{
		pdf:           pdf,
		ws:            ws,
		objects:       make(map[string]ObjectGeometry),
		invalidateFns: make(map[int]func()),
		logger:        observability.NopLogger{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OnInvalidate registers fn to run whenever the object registry changes.
// Viewport changes are observed on the stores directly; this hook covers
// the registry, which the service owns. Returns an unregister func.
func (s *Service) OnInvalidate(fn func()) func() {
	id := s.invalidateNextID
	s.invalidateNextID++
	s.invalidateFns[id] = fn
	return func() { delete(s.invalidateFns, id) }
}

func (s *Service) invalidate() {
	for _, fn := range s.invalidateFns {
		fn()
	}
}

// RegisterCanvasObject adds or replaces a registry entry. Called by the
// rendering collaborator when an object mounts.
func (s *Service) RegisterCanvasObject(obj anchor.CanvasObject) {
	s.objects[obj.ID] = ObjectGeometry{Position: obj.Position, Size: obj.Size}
	s.logger.Debug("canvas object registered", observability.String("object", obj.ID))
	s.invalidate()
}

// UpdateCanvasObjectPosition moves a registered object. Any link could
// reference the object, so all links are invalidated; the conservative
// marking trades precision for correctness, and recomputation is cheap.
func (s *Service) UpdateCanvasObjectPosition(id string, pos geom.WorldPoint) {
	entry, ok := s.objects[id]
	if !ok {
		return
	}
	entry.Position = pos
	s.objects[id] = entry
	s.invalidate()
}

// UpdateCanvasObjectSize records a resize, e.g. after a note card re-lays
// out its content.
func (s *Service) UpdateCanvasObjectSize(id string, size geom.Size) {
	entry, ok := s.objects[id]
	if !ok {
		return
	}
	entry.Size = size
	s.objects[id] = entry
	s.invalidate()
}

// UnregisterCanvasObject drops a registry entry on unmount. Anchors that
// reference the object become unresolvable until it is registered again.
func (s *Service) UnregisterCanvasObject(id string) {
	if _, ok := s.objects[id]; !ok {
		return
	}
	delete(s.objects, id)
	s.logger.Debug("canvas object unregistered", observability.String("object", id))
	s.invalidate()
}

// Object returns the registered geometry for an object ID.
func (s *Service) Object(id string) (ObjectGeometry, bool) {
	g, ok := s.objects[id]
	return g, ok
}

// PageToScreen converts rendered-pixel page coordinates to screen space.
func (s *Service) PageToScreen(pageIndex int, x, y float64) (geom.ScreenPoint, bool) {
	origin, ok := s.pdf.PageScreenOrigin(pageIndex)
	if !ok {
		return geom.ScreenPoint{}, false
	}
	sx, sy := Translate(origin.X, origin.Y).Apply(x, y)
	return geom.ScreenPoint{X: sx, Y: sy}, true
}

// PdfToScreen converts a PDF point (normalized or absolute) to screen
// space, accounting for the page's stacking offset, scroll, and zoom.
// Absolute coordinates are 72-DPI page units and scale with the current
// zoom; normalized coordinates scale with the page's rendered size.
func (s *Service) PdfToScreen(p geom.PdfPoint) (geom.ScreenPoint, bool) {
	if !p.Valid() {
		return geom.ScreenPoint{}, false
	}
	var x, y float64
	switch p.Kind {
	case geom.PdfNormalized:
		size, ok := s.pdf.PageDimensions(p.PageIndex)
		if !ok {
			return geom.ScreenPoint{}, false
		}
		x, y = Scale(size.Width, size.Height).Apply(p.X, p.Y)
	case geom.PdfAbsolute:
		z := s.pdf.Zoom()
		x, y = Scale(z, z).Apply(p.X, p.Y)
	default:
		return geom.ScreenPoint{}, false
	}
	return s.PageToScreen(p.PageIndex, x, y)
}

// ScreenToPdf converts a screen point to a normalized PDF point on the
// given document. The page is found by scanning cumulative offsets in
// ascending index order; coordinates are clamped into [0, 1] so a point in
// an inter-page gap still lands on its nearest page.
func (s *Service) ScreenToPdf(p geom.ScreenPoint, documentID string) (geom.PdfPoint, bool) {
	contentY, ok := s.pdf.ScreenToContentY(p.Y)
	if !ok {
		return geom.PdfPoint{}, false
	}
	pageIndex, ok := s.pdf.PageAtContentY(contentY)
	if !ok {
		return geom.PdfPoint{}, false
	}
	origin, ok := s.pdf.PageScreenOrigin(pageIndex)
	if !ok {
		return geom.PdfPoint{}, false
	}
	size, ok := s.pdf.PageDimensions(pageIndex)
	if !ok {
		return geom.PdfPoint{}, false
	}
	return geom.PdfPoint{
		DocumentID: documentID,
		PageIndex:  pageIndex,
		X:          clamp01((p.X - origin.X) / size.Width),
		Y:          clamp01((p.Y - origin.Y) / size.Height),
		Kind:       geom.PdfNormalized,
	}, true
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// ScreenToWorld converts an ambiguous global screen point to world space.
// The point must actually lie inside the workspace panel; use the viewport
// store's unchecked conversion for points already known to belong to it.
func (s *Service) ScreenToWorld(p geom.ScreenPoint) (geom.WorldPoint, bool) {
	if !s.IsPointInWorkspacePanel(p) {
		return geom.WorldPoint{}, false
	}
	return s.ws.ScreenToWorld(p)
}

// WorldToScreen converts a world point to screen space. No bounds check:
// off-screen objects and mid-drag targets convert fine.
func (s *Service) WorldToScreen(p geom.WorldPoint) (geom.ScreenPoint, bool) {
	return s.ws.WorldToScreen(p)
}

// PdfToWorld is the composed pdf→screen→world transform. It is deliberately
// implemented as the two single-hop transforms so the composition can never
// drift from them, and it skips the panel bounds check so PDF content maps
// to world space even when the panels do not overlap.
func (s *Service) PdfToWorld(p geom.PdfPoint) (geom.WorldPoint, bool) {
	sp, ok := s.PdfToScreen(p)
	if !ok {
		return geom.WorldPoint{}, false
	}
	return s.ws.ScreenToWorld(sp)
}

// WorldToPdf is the composed world→screen→pdf transform; see PdfToWorld.
func (s *Service) WorldToPdf(p geom.WorldPoint, documentID string) (geom.PdfPoint, bool) {
	sp, ok := s.ws.WorldToScreen(p)
	if !ok {
		return geom.PdfPoint{}, false
	}
	return s.ScreenToPdf(sp, documentID)
}

// anchorWorld resolves canvas-side anchors directly in world space.
func (s *Service) anchorWorld(a anchor.Anchor) (geom.WorldPoint, bool) {
	switch a := a.(type) {
	case anchor.CanvasObjectAnchor:
		obj, ok := s.objects[a.ObjectID]
		if !ok {
			return geom.WorldPoint{}, false
		}
		return connectionPointOf(obj, a.ConnectionPoint), true
	case anchor.CanvasPointAnchor:
		return a.Point, true
	}
	return geom.WorldPoint{}, false
}

func connectionPointOf(obj ObjectGeometry, cp geom.ConnectionPoint) geom.WorldPoint {
	halfW := obj.Size.Width / 2
	halfH := obj.Size.Height / 2
	center := geom.WorldPoint{X: obj.Position.X + halfW, Y: obj.Position.Y + halfH}
	switch cp {
	case geom.ConnectLeft:
		return geom.WorldPoint{X: obj.Position.X, Y: center.Y}
	case geom.ConnectRight:
		return geom.WorldPoint{X: obj.Position.X + obj.Size.Width, Y: center.Y}
	case geom.ConnectTop:
		return geom.WorldPoint{X: center.X, Y: obj.Position.Y}
	case geom.ConnectBottom:
		return geom.WorldPoint{X: center.X, Y: obj.Position.Y + obj.Size.Height}
	default:
		return center
	}
}

// AnchorToScreen resolves any anchor variant to a screen point against the
// current viewport state. PDF region and text anchors resolve at their
// rect's trailing (right-center) edge, where the link visually leaves the
// excerpt; text anchors fall back to their first bounding rect.
func (s *Service) AnchorToScreen(a anchor.Anchor) (geom.ScreenPoint, bool) {
	switch a := a.(type) {
	case anchor.PdfRegionAnchor:
		return s.PdfToScreen(regionTrailingPoint(a.DocumentID, a.PageIndex, a.Rect))
	case anchor.PdfTextAnchor:
		if len(a.BoundingRects) == 0 {
			return geom.ScreenPoint{}, false
		}
		return s.PdfToScreen(regionTrailingPoint(a.DocumentID, a.PageIndex, a.BoundingRects[0]))
	case anchor.CanvasObjectAnchor, anchor.CanvasPointAnchor:
		wp, ok := s.anchorWorld(a)
		if !ok {
			return geom.ScreenPoint{}, false
		}
		return s.ws.WorldToScreen(wp)
	}
	return geom.ScreenPoint{}, false
}

func regionTrailingPoint(documentID string, pageIndex int, r geom.NormalizedRect) geom.PdfPoint {
	return geom.PdfPoint{
		DocumentID: documentID,
		PageIndex:  pageIndex,
		X:          r.X + r.W,
		Y:          r.Y + r.H/2,
		Kind:       geom.PdfNormalized,
	}
}

// AnchorToWorld resolves any anchor variant to a world point. Canvas-side
// anchors resolve directly in world space; PDF-side anchors go through
// screen space with the bounds check skipped, like PdfToWorld.
func (s *Service) AnchorToWorld(a anchor.Anchor) (geom.WorldPoint, bool) {
	switch a.(type) {
	case anchor.CanvasObjectAnchor, anchor.CanvasPointAnchor:
		return s.anchorWorld(a)
	}
	sp, ok := s.AnchorToScreen(a)
	if !ok {
		return geom.WorldPoint{}, false
	}
	return s.ws.ScreenToWorld(sp)
}

// PdfRectToScreen transforms a normalized page rect to screen space and
// reports its visibility against the PDF panel bounds.
func (s *Service) PdfRectToScreen(pageIndex int, rect geom.NormalizedRect) (RectVisibility, bool) {
	origin, ok := s.pdf.PageScreenOrigin(pageIndex)
	if !ok {
		return RectVisibility{}, false
	}
	size, ok := s.pdf.PageDimensions(pageIndex)
	if !ok {
		return RectVisibility{}, false
	}
	m := Scale(size.Width, size.Height).Mul(Translate(origin.X, origin.Y))
	screenRect := m.ApplyRect(rect.X, rect.Y, rect.W, rect.H)
	panel, _ := s.pdf.PanelRect()
	return visibilityIn(screenRect, panel), true
}

// WorldRectToScreen transforms a world rect to screen space and reports its
// visibility against the workspace panel bounds.
func (s *Service) WorldRectToScreen(rect geom.WorldRect) (RectVisibility, bool) {
	panel, ok := s.ws.PanelRect()
	if !ok {
		return RectVisibility{}, false
	}
	worldX, worldY, scale := s.ws.WorldTransform()
	m := Scale(scale, scale).Mul(Translate(panel.X+worldX, panel.Y+worldY))
	screenRect := m.ApplyRect(rect.X, rect.Y, rect.W, rect.H)
	return visibilityIn(screenRect, panel), true
}

func visibilityIn(r geom.ScreenRect, panel geom.ScreenRect) RectVisibility {
	return RectVisibility{
		Rect:             r,
		FullyVisible:     panel.Contains(r),
		PartiallyVisible: panel.Intersects(r),
	}
}

// IsPointInPdfPanel reports whether p lies inside the PDF panel bounds,
// edges inclusive.
func (s *Service) IsPointInPdfPanel(p geom.ScreenPoint) bool {
	rect, ok := s.pdf.PanelRect()
	return ok && rect.ContainsPoint(p)
}

// IsPointInWorkspacePanel reports whether p lies inside the workspace panel
// bounds, edges inclusive.
func (s *Service) IsPointInWorkspacePanel(p geom.ScreenPoint) bool {
	rect, ok := s.ws.PanelRect()
	return ok && rect.ContainsPoint(p)
}

// ContainingPanel returns which panel holds the point, checking the PDF
// panel first. The two panels are assumed non-overlapping.
func (s *Service) ContainingPanel(p geom.ScreenPoint) (geom.Panel, bool) {
	if s.IsPointInPdfPanel(p) {
		return geom.PanelPdf, true
	}
	if s.IsPointInWorkspacePanel(p) {
		return geom.PanelWorkspace, true
	}
	return "", false
}

// ToPanelPoint converts a screen point to panel-local coordinates for the
// panel that contains it.
func (s *Service) ToPanelPoint(p geom.ScreenPoint) (geom.PanelPoint, bool) {
	panel, ok := s.ContainingPanel(p)
	if !ok {
		return geom.PanelPoint{}, false
	}
	var rect geom.ScreenRect
	switch panel {
	case geom.PanelPdf:
		rect, _ = s.pdf.PanelRect()
	case geom.PanelWorkspace:
		rect, _ = s.ws.PanelRect()
	}
	return geom.PanelPoint{X: p.X - rect.X, Y: p.Y - rect.Y, Panel: panel}, true
}

// CalculateLinkEndpoints resolves both of a link's anchors. IsVisible is
// true only when both resolve; unresolved endpoints carry the off-screen
// sentinel, never (0,0).
func (s *Service) CalculateLinkEndpoints(l anchor.Link) LinkEndpoints {
	ep := LinkEndpoints{Source: OffscreenSentinel, Target: OffscreenSentinel}

	src, srcOK := s.AnchorToScreen(l.Source)
	tgt, tgtOK := s.AnchorToScreen(l.Target)
	if srcOK {
		ep.Source = src
		_, ep.SourceInPanel = s.ContainingPanel(src)
	}
	if tgtOK {
		ep.Target = tgt
		_, ep.TargetInPanel = s.ContainingPanel(tgt)
	}
	ep.IsVisible = srcOK && tgtOK
	return ep
}
