// Package pagesource supplies PDF page dimensions to the viewport layer.
// The coordinate core never computes page sizes itself; it reacts to
// SetPageDimensions calls fed from a source like this one.
package pagesource

import (
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/wudi/excerptkit/geom"
	"github.com/wudi/excerptkit/viewport"
)

// BaseDPI is the PDF unit resolution: one point is 1/72 inch.
const BaseDPI = 72.0

// Source exposes page geometry for one open document.
type Source interface {
	PageCount() int
	// PageSizePoints returns the page's media-box size in PDF points.
	PageSizePoints(pageIndex int) (geom.Size, bool)
}

// File is a Source backed by a PDF file on disk, read once at open time.
type File struct {
	path string
	dims []geom.Size
}

// Open reads the page count and per-page media-box dimensions of a PDF.
func Open(path string) (*File, error) {
	count, err := api.PageCountFile(path)
	if err != nil {
		return nil, fmt.Errorf("page count of %s: %w", path, err)
	}
	pageDims, err := api.PageDimsFile(path)
	if err != nil {
		return nil, fmt.Errorf("page dimensions of %s: %w", path, err)
	}
	dims := make([]geom.Size, 0, count)
	for _, d := range pageDims {
		dims = append(dims, geom.Size{Width: d.Width, Height: d.Height})
	}
	// Some damaged files report fewer dims than pages; pad with US Letter
	// so stacking offsets stay defined.
	for len(dims) < count {
		dims = append(dims, geom.Size{Width: 612, Height: 792})
	}
	return &File{path: path, dims: dims}, nil
}

// Path returns the file the source was opened from.
func (f *File) Path() string { return f.path }

// PageCount returns the number of pages.
func (f *File) PageCount() int { return len(f.dims) }

// PageSizePoints returns the media-box size of one page in PDF points.
func (f *File) PageSizePoints(pageIndex int) (geom.Size, bool) {
	if pageIndex < 0 || pageIndex >= len(f.dims) {
		return geom.Size{}, false
	}
	return f.dims[pageIndex], true
}

// RenderedSize scales a page's point size to pixels at the given DPI.
func RenderedSize(src Source, pageIndex int, dpi float64) (geom.Size, bool) {
	pts, ok := src.PageSizePoints(pageIndex)
	if !ok {
		return geom.Size{}, false
	}
	scale := dpi / BaseDPI
	return geom.Size{Width: pts.Width * scale, Height: pts.Height * scale}, true
}

// Feed pushes every page's rendered size into the viewport store, the way a
// render collaborator would after rasterizing at the given DPI. The zoom is
// set to the matching render factor, so absolute 72-DPI coordinates land on
// the same screen pixels as their normalized equivalents.
func Feed(v *viewport.PdfViewport, src Source, dpi float64) {
	if dpi <= 0 {
		dpi = BaseDPI
	}
	v.SetZoom(dpi / BaseDPI)
	for i := 0; i < src.PageCount(); i++ {
		size, ok := RenderedSize(src, i, dpi)
		if !ok {
			continue
		}
		v.SetPageDimensions(i, size.Width, size.Height)
	}
}
