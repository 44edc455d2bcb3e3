// Package anchor defines the entities that reference positions indirectly:
// anchors, links, and canvas objects. An anchor never stores a resolved
// screen position; resolution happens on demand in the coords package
// against the current viewport state, because viewports change far more
// often than anchor identity.
package anchor

import "github.com/wudi/excerptkit/geom"

// Kind discriminates the anchor variants.
type Kind string

const (
	KindPdfRegion    Kind = "pdf-region"
	KindPdfText      Kind = "pdf-text"
	KindCanvasObject Kind = "canvas-object"
	KindCanvasPoint  Kind = "canvas-point"
)

// Anchor is a polymorphic reference to a place a link can attach to.
type Anchor interface {
	AnchorKind() Kind
}

// PdfRegionAnchor is a rectangular selection on a PDF page, in normalized
// page-fraction units.
type PdfRegionAnchor struct {
	DocumentID string              `json:"documentId"`
	PageIndex  int                 `json:"pageIndex"`
	Rect       geom.NormalizedRect `json:"rect"`
	Text       string              `json:"text,omitempty"`
}

func (PdfRegionAnchor) AnchorKind() Kind { return KindPdfRegion }

// TextRange addresses a span of extracted page text by character offsets.
type TextRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// PdfTextAnchor is a text span on a PDF page. Resolution falls back to the
// first bounding rect; an anchor without bounding rects is unresolvable.
type PdfTextAnchor struct {
	DocumentID    string                `json:"documentId"`
	PageIndex     int                   `json:"pageIndex"`
	TextRange     TextRange             `json:"textRange"`
	BoundingRects []geom.NormalizedRect `json:"boundingRects"`
}

func (PdfTextAnchor) AnchorKind() Kind { return KindPdfText }

// CanvasObjectAnchor attaches to a live canvas object's edge or center. It
// resolves through the object registry, never through a stored coordinate,
// so moving the object never touches the anchor.
type CanvasObjectAnchor struct {
	WorkspaceID     string               `json:"workspaceId"`
	ObjectID        string               `json:"objectId"`
	ConnectionPoint geom.ConnectionPoint `json:"connectionPoint"`
}

func (CanvasObjectAnchor) AnchorKind() Kind { return KindCanvasObject }

// CanvasPointAnchor is a fixed world-space point.
type CanvasPointAnchor struct {
	WorkspaceID string          `json:"workspaceId"`
	Point       geom.WorldPoint `json:"point"`
}

func (CanvasPointAnchor) AnchorKind() Kind { return KindCanvasPoint }

// LinkStyle carries presentation hints the renderer is free to interpret.
type LinkStyle struct {
	Color     string  `json:"color,omitempty"`
	Width     float64 `json:"width,omitempty"`
	Curvature float64 `json:"curvature,omitempty"`
}

// Link connects two anchors. It owns no geometry of its own; its rendered
// endpoints live in the scheduler's cache and are recomputed whenever either
// side's viewport or object moves.
type Link struct {
	ID            string            `json:"id"`
	Source        Anchor            `json:"source"`
	Target        Anchor            `json:"target"`
	Style         *LinkStyle        `json:"style,omitempty"`
	Bidirectional bool              `json:"bidirectional,omitempty"`
	Highlighted   bool              `json:"highlighted,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// ObjectType tags what a canvas object holds.
type ObjectType string

const (
	ObjectExcerpt ObjectType = "excerpt"
	ObjectNote    ObjectType = "note"
)

// CanvasObject is the live half of a link target: an object on the canvas
// with a world-space position mutated by drags. The coords registry tracks
// objects by ID so CanvasObjectAnchor resolution follows moves without the
// Link being touched.
type CanvasObject struct {
	ID       string          `json:"id"`
	Type     ObjectType      `json:"type"`
	Position geom.WorldPoint `json:"position"`
	Size     geom.Size       `json:"size"`
	Selected bool            `json:"selected,omitempty"`
}

// Excerpt is the type-specific payload of an excerpt object: the PDF region
// it was clipped from and the text captured at selection time.
type Excerpt struct {
	DocumentID string              `json:"documentId"`
	PageIndex  int                 `json:"pageIndex"`
	Rect       geom.NormalizedRect `json:"rect"`
	Text       string              `json:"text,omitempty"`
}
