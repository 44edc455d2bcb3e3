// Package workspace assembles the interaction layer of one open workspace:
// the PDF and canvas viewports, the coordinate service that bridges them,
// the link store, the endpoint tracker and the excerpt drag controller.
package workspace

import (
	"context"
	"fmt"
	"image"
	"time"

	"github.com/wudi/excerptkit/anchor"
	"github.com/wudi/excerptkit/coords"
	"github.com/wudi/excerptkit/drag"
	"github.com/wudi/excerptkit/geom"
	"github.com/wudi/excerptkit/notes"
	"github.com/wudi/excerptkit/observability"
	"github.com/wudi/excerptkit/ocr"
	"github.com/wudi/excerptkit/scheduler"
	"github.com/wudi/excerptkit/scripting"
	"github.com/wudi/excerptkit/viewport"
)

// DefaultCardSize is the initial size of an excerpt card dropped onto the
// canvas, in world units.
var DefaultCardSize = geom.Size{Width: 240, Height: 160}

// DefaultLinkStyle is applied to links created by a drop.
var DefaultLinkStyle = anchor.LinkStyle{Color: "#4a90d9", Width: 1.5, Curvature: 0.25}

// Card is the result of committing a drop: the created canvas object, the
// excerpt payload behind it, the link back to the source region and the
// presentation fields the drop hook may have customized.
type Card struct {
	Object  anchor.CanvasObject
	Excerpt anchor.Excerpt
	Link    anchor.Link
	Title   string
	Tags    []string
	Color   string
}

// Session owns the wired-together interaction stack for one workspace.
// All methods are meant to be called from the UI goroutine.
type Session struct {
	Pdf     *viewport.PdfViewport
	Canvas  *viewport.WorkspaceViewport
	Coords  *coords.Service
	Store   *Store
	Tracker *scheduler.Tracker
	Drag    *drag.Controller

	id        string
	converter *notes.Converter
	hook      *scripting.DropHook
	logger    observability.Logger
	seq       int
	drops     int
}

type Option func(*Session)

func WithLogger(l observability.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithDropHook installs a JavaScript hook run against each committed drop.
func WithDropHook(script string) Option {
	return func(s *Session) { s.hook = scripting.NewDropHook(script) }
}

// WithWorkspaceID overrides the generated workspace identifier.
func WithWorkspaceID(id string) Option {
	return func(s *Session) {
		if id != "" {
			s.id = id
		}
	}
}

// NewSession builds a fully wired session on the given frame scheduler. The
// tracker watches both viewports, so camera changes converge to a single
// endpoint recompute per frame without any further wiring by the caller.
func NewSession(frames scheduler.FrameScheduler, opts ...Option) *Session {
	s := &Session{
		id:        "workspace-default",
		converter: notes.NewConverter(),
		logger:    observability.NopLogger{},
	}
	for _, opt := range opts {
		opt(s)
	}

	s.Pdf = viewport.NewPdfViewport()
	s.Canvas = viewport.NewWorkspaceViewport()
	s.Coords = coords.NewService(s.Pdf, s.Canvas, coords.WithLogger(s.logger))
	s.Store = NewStore()
	s.Tracker = scheduler.New(s.Coords, s.Store, frames, scheduler.WithLogger(s.logger))
	s.Tracker.Watch(s.Pdf)
	s.Tracker.Watch(s.Canvas)
	s.Drag = drag.NewController(s.Coords, drag.WithLogger(s.logger))
	return s
}

// WorkspaceID returns the identifier stamped on canvas anchors.
func (s *Session) WorkspaceID() string { return s.id }

// Close detaches the tracker from its wired sources.
func (s *Session) Close() { s.Tracker.Close() }

func (s *Session) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%d", prefix, s.seq)
}

// CommitDrop turns a completed drop into a card on the canvas: it stores the
// excerpt, registers the new object with the coordinate service and creates
// the link from the source region to the card in one step, so the tracker
// never observes a link whose object is missing. The drop hook, if any, only
// customizes presentation; a failing hook is logged and the drop proceeds.
func (s *Session) CommitDrop(ctx context.Context, res drag.DropResult) Card {
	sel := res.Selection
	ex := anchor.Excerpt{
		DocumentID: sel.DocumentID,
		PageIndex:  sel.PageIndex,
		Rect:       sel.Rect,
		Text:       sel.Text,
	}
	obj := anchor.CanvasObject{
		ID:       s.nextID("obj"),
		Type:     anchor.ObjectExcerpt,
		Position: res.WorldPosition,
		Size:     DefaultCardSize,
	}

	card := Card{
		Object:  obj,
		Excerpt: ex,
		Title:   notes.DeriveTitle(sel.Text),
	}
	if s.hook != nil {
		tpl, err := s.hook.Apply(ctx, scripting.ExcerptContext{
			DocumentID: sel.DocumentID,
			PageIndex:  sel.PageIndex,
			Text:       sel.Text,
		})
		if err != nil {
			s.logger.Warn("drop hook failed",
				observability.String("object", obj.ID),
				observability.Error("error", err))
		} else {
			if tpl.Title != "" {
				card.Title = tpl.Title
			}
			card.Tags = tpl.Tags
			card.Color = tpl.Color
		}
	}

	style := DefaultLinkStyle
	link := anchor.Link{
		ID: s.nextID("link"),
		Source: anchor.PdfRegionAnchor{
			DocumentID: sel.DocumentID,
			PageIndex:  sel.PageIndex,
			Rect:       sel.Rect,
			Text:       sel.Text,
		},
		Target: anchor.CanvasObjectAnchor{
			WorkspaceID:     s.id,
			ObjectID:        obj.ID,
			ConnectionPoint: geom.ConnectLeft,
		},
		Style: &style,
	}
	card.Link = link

	s.Store.PutObject(obj)
	s.Store.PutExcerpt(obj.ID, ex)
	s.Coords.RegisterCanvasObject(obj)
	s.Store.PutLink(link)
	s.Tracker.MarkDirty(link.ID)

	s.drops++
	s.logger.Info("excerpt dropped",
		observability.String("object", obj.ID),
		observability.String("link", link.ID),
		observability.Int("page", sel.PageIndex),
		observability.Int(observability.MetricDropCount, s.drops),
		observability.Int(observability.MetricLinkCount, s.Store.LinkCount()))
	return card
}

// MoveObject repositions a canvas object. The coordinate service update
// invalidates the tracker, so every dependent link is recomputed next frame.
func (s *Session) MoveObject(id string, pos geom.WorldPoint) {
	obj, ok := s.Store.Object(id)
	if !ok {
		return
	}
	obj.Position = pos
	s.Store.PutObject(obj)
	s.Coords.UpdateCanvasObjectPosition(id, pos)
}

// ResizeObject changes a canvas object's size.
func (s *Session) ResizeObject(id string, size geom.Size) {
	obj, ok := s.Store.Object(id)
	if !ok {
		return
	}
	obj.Size = size
	s.Store.PutObject(obj)
	s.Coords.UpdateCanvasObjectSize(id, size)
}

// RemoveObject deletes a canvas object together with every link touching it.
func (s *Session) RemoveObject(id string) {
	for _, linkID := range s.Store.LinksTouching(id) {
		s.RemoveLink(linkID)
	}
	s.Store.RemoveObject(id)
	s.Coords.UnregisterCanvasObject(id)
}

// RemoveLink deletes a link and evicts its cached endpoints.
func (s *Session) RemoveLink(id string) {
	s.Store.RemoveLink(id)
	s.Tracker.Forget(id)
}

// AddNoteCard creates a standalone note card on the canvas.
func (s *Session) AddNoteCard(markdown string, pos geom.WorldPoint) (Card, error) {
	content, err := s.converter.Render(markdown)
	if err != nil {
		return Card{}, fmt.Errorf("add note card: %w", err)
	}
	obj := anchor.CanvasObject{
		ID:       s.nextID("obj"),
		Type:     anchor.ObjectNote,
		Position: pos,
		Size:     DefaultCardSize,
	}
	s.Store.PutObject(obj)
	s.Store.PutNote(obj.ID, content)
	s.Coords.RegisterCanvasObject(obj)
	return Card{Object: obj, Title: content.Title}, nil
}

// RecognizeExcerpt recovers the text of an excerpt whose selection captured
// none, typically because the page has no text layer. The caller supplies
// the rendered page raster; the excerpt's region is cropped out of it and
// run through the default OCR engine. The recovered text is stored back on
// the excerpt payload.
func (s *Session) RecognizeExcerpt(ctx context.Context, objectID string, page image.Image) (string, error) {
	ex, ok := s.Store.Excerpt(objectID)
	if !ok {
		return "", fmt.Errorf("recognize excerpt: unknown object %q", objectID)
	}
	if ex.Text != "" {
		return ex.Text, nil
	}
	in, err := ocr.CaptureRegion(page, ex.PageIndex, ex.Rect)
	if err != nil {
		return "", fmt.Errorf("recognize excerpt: %w", err)
	}
	in.ID = objectID
	start := time.Now()
	res, err := ocr.DefaultEngine().Recognize(ctx, in)
	if err != nil {
		return "", fmt.Errorf("recognize excerpt: %w", err)
	}
	s.logger.Debug("excerpt text recovered",
		observability.String("object", objectID),
		observability.Float64(observability.MetricOCRTime, float64(time.Since(start).Microseconds())/1000))
	ex.Text = res.PlainText
	s.Store.PutExcerpt(objectID, ex)
	return res.PlainText, nil
}

// AttachNote renders markdown note content and stores it on the object.
func (s *Session) AttachNote(objectID, markdown string) (notes.Content, error) {
	if _, ok := s.Store.Object(objectID); !ok {
		return notes.Content{}, fmt.Errorf("attach note: unknown object %q", objectID)
	}
	content, err := s.converter.Render(markdown)
	if err != nil {
		return notes.Content{}, fmt.Errorf("attach note: %w", err)
	}
	s.Store.PutNote(objectID, content)
	return content, nil
}
