package viewport

import (
	"sort"

	"github.com/wudi/excerptkit/geom"
)

// PdfViewport tracks the scroll position, zoom, panel bounds, and rendered
// page dimensions of the PDF panel. Page dimensions are the post-zoom pixel
// sizes reported by the render collaborator; this store never computes them
// itself.
//
// Pages stack vertically in ascending index order with PageGap pixels
// between them. The cumulative offset of every known page is recomputed
// synchronously whenever a dimension changes, so readers always observe a
// consistent stacking.
type PdfViewport struct {
	notifier

	PageGap float64

	pageDims    map[int]geom.Size
	pageOrder   []int     // known page indices, ascending
	pageOffsets []float64 // content-space y of each page in pageOrder

	scrollTop  float64
	scrollLeft float64
	zoom       float64

	panelRect    geom.ScreenRect
	panelRectSet bool
}

// NewPdfViewport returns a store with zoom 1 and no known pages or panel
// bounds.
func NewPdfViewport() *PdfViewport {
	return &PdfViewport{
		PageGap:  DefaultPageGap,
		pageDims: make(map[int]geom.Size),
		zoom:     1,
	}
}

// Subscribe registers fn to run synchronously after every state change.
// The returned func unregisters it.
func (v *PdfViewport) Subscribe(fn func()) func() { return v.subscribe(fn) }

// SetPageDimensions records the rendered pixel size of one page and refreshes
// the cumulative stacking offsets.
func (v *PdfViewport) SetPageDimensions(pageIndex int, width, height float64) {
	if pageIndex < 0 || width <= 0 || height <= 0 {
		return
	}
	v.pageDims[pageIndex] = geom.Size{Width: width, Height: height}
	v.recalcOffsets()
	v.notify()
}

// RemovePage forgets a page, for example when the document shrinks after a
// reload.
func (v *PdfViewport) RemovePage(pageIndex int) {
	if _, ok := v.pageDims[pageIndex]; !ok {
		return
	}
	delete(v.pageDims, pageIndex)
	v.recalcOffsets()
	v.notify()
}

func (v *PdfViewport) recalcOffsets() {
	v.pageOrder = v.pageOrder[:0]
	for idx := range v.pageDims {
		v.pageOrder = append(v.pageOrder, idx)
	}
	sort.Ints(v.pageOrder)

	v.pageOffsets = v.pageOffsets[:0]
	offset := 0.0
	for _, idx := range v.pageOrder {
		v.pageOffsets = append(v.pageOffsets, offset)
		offset += v.pageDims[idx].Height + v.PageGap
	}
}

// PageDimensions returns the rendered size of a page, if known.
func (v *PdfViewport) PageDimensions(pageIndex int) (geom.Size, bool) {
	s, ok := v.pageDims[pageIndex]
	return s, ok
}

// PageCount returns how many pages have known dimensions.
func (v *PdfViewport) PageCount() int { return len(v.pageDims) }

// PageOffset returns the content-space y coordinate of a page's top edge:
// the sum of all prior known pages' heights plus gaps.
func (v *PdfViewport) PageOffset(pageIndex int) (float64, bool) {
	for i, idx := range v.pageOrder {
		if idx == pageIndex {
			return v.pageOffsets[i], true
		}
	}
	return 0, false
}

// PageAtContentY maps a content-space y coordinate to a page index by linear
// scan in ascending page order. A y that falls in an inter-page gap or past
// the last page resolves to the nearest page found by the scan.
func (v *PdfViewport) PageAtContentY(y float64) (int, bool) {
	if len(v.pageOrder) == 0 {
		return 0, false
	}
	for i, idx := range v.pageOrder {
		bottom := v.pageOffsets[i] + v.pageDims[idx].Height
		if y < bottom+v.PageGap {
			return idx, true
		}
	}
	return v.pageOrder[len(v.pageOrder)-1], true
}

// SetScroll records the panel's scroll offsets.
func (v *PdfViewport) SetScroll(top, left float64) {
	if v.scrollTop == top && v.scrollLeft == left {
		return
	}
	v.scrollTop = top
	v.scrollLeft = left
	v.notify()
}

// Scroll returns the current scroll offsets.
func (v *PdfViewport) Scroll() (top, left float64) { return v.scrollTop, v.scrollLeft }

// SetZoom records the PDF render zoom. The render collaborator re-reports
// page dimensions after a zoom change; this store only mirrors the factor.
func (v *PdfViewport) SetZoom(zoom float64) {
	if zoom <= 0 || zoom == v.zoom {
		return
	}
	v.zoom = zoom
	v.notify()
}

// Zoom returns the current zoom factor.
func (v *PdfViewport) Zoom() float64 { return v.zoom }

// SetPanelRect records the panel's screen bounds. A rect value-equal to the
// current one is ignored without notifying, so layout observers that react
// to rect changes cannot feed back into themselves.
func (v *PdfViewport) SetPanelRect(rect geom.ScreenRect) {
	if v.panelRectSet && v.panelRect.Equal(rect) {
		return
	}
	v.panelRect = rect
	v.panelRectSet = true
	v.notify()
}

// ClearPanelRect marks the panel as unmounted. Transforms depending on the
// rect report unresolvable until it is set again.
func (v *PdfViewport) ClearPanelRect() {
	if !v.panelRectSet {
		return
	}
	v.panelRectSet = false
	v.notify()
}

// PanelRect returns the panel bounds, if mounted.
func (v *PdfViewport) PanelRect() (geom.ScreenRect, bool) {
	return v.panelRect, v.panelRectSet
}

// PageScreenOrigin returns the screen position of a page's top-left corner,
// combining the panel origin, scroll offsets, and the page's stacking
// offset. Unresolvable when the panel is unmounted or the page is unknown.
func (v *PdfViewport) PageScreenOrigin(pageIndex int) (geom.ScreenPoint, bool) {
	if !v.panelRectSet {
		return geom.ScreenPoint{}, false
	}
	offset, ok := v.PageOffset(pageIndex)
	if !ok {
		return geom.ScreenPoint{}, false
	}
	return geom.ScreenPoint{
		X: v.panelRect.X - v.scrollLeft,
		Y: v.panelRect.Y - v.scrollTop + offset,
	}, true
}

// ScreenToContentY converts a screen y coordinate into content space.
// Unresolvable when the panel is unmounted.
func (v *PdfViewport) ScreenToContentY(screenY float64) (float64, bool) {
	if !v.panelRectSet {
		return 0, false
	}
	return screenY - v.panelRect.Y + v.scrollTop, true
}
