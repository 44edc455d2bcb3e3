package ocr

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	xdraw "golang.org/x/image/draw"

	"github.com/wudi/excerptkit/geom"
)

// MinCaptureHeight is the pixel height small region crops are upscaled to
// before recognition. Tesseract degrades sharply below roughly 30px line
// height; scaling the crop up recovers most of it.
const MinCaptureHeight = 64

// CaptureRegion crops the selected normalized region out of a rendered page
// raster and encodes it as a PNG input for recognition. Crops shorter than
// MinCaptureHeight are upscaled with Catmull-Rom resampling.
func CaptureRegion(page image.Image, pageIndex int, region geom.NormalizedRect, opts ...InputOption) (Input, error) {
	if !region.Valid() || region.W == 0 || region.H == 0 {
		return Input{}, fmt.Errorf("capture region: empty or invalid rect %+v", region)
	}
	bounds := page.Bounds()
	w := float64(bounds.Dx())
	h := float64(bounds.Dy())

	crop := image.Rect(
		bounds.Min.X+int(region.X*w),
		bounds.Min.Y+int(region.Y*h),
		bounds.Min.X+int((region.X+region.W)*w+0.5),
		bounds.Min.Y+int((region.Y+region.H)*h+0.5),
	).Intersect(bounds)
	if crop.Empty() {
		return Input{}, fmt.Errorf("capture region: rect %+v is outside the page raster", region)
	}

	out := image.NewRGBA(image.Rect(0, 0, crop.Dx(), crop.Dy()))
	xdraw.Draw(out, out.Bounds(), page, crop.Min, xdraw.Src)

	if out.Bounds().Dy() < MinCaptureHeight {
		scale := float64(MinCaptureHeight) / float64(out.Bounds().Dy())
		scaled := image.NewRGBA(image.Rect(0, 0,
			int(float64(out.Bounds().Dx())*scale+0.5), MinCaptureHeight))
		xdraw.CatmullRom.Scale(scaled, scaled.Bounds(), out, out.Bounds(), xdraw.Src, nil)
		out = scaled
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, out); err != nil {
		return Input{}, fmt.Errorf("encode capture: %w", err)
	}

	in := Input{
		Image:     buf.Bytes(),
		Format:    ImageFormatPNG,
		PageIndex: pageIndex,
	}
	for _, opt := range opts {
		opt(&in)
	}
	return in, nil
}
