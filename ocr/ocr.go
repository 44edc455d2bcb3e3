// Package ocr defines the contract for recognizing text in selected PDF
// regions of image-only documents. When a selection captures no text layer,
// the workspace can hand the rendered page raster to an Engine; the default
// implementation is Tesseract-backed (see the tesseract subpackage), but the
// interface is provider-agnostic.
package ocr

import "context"

// ImageFormat identifies the content type of an OCR input image.
type ImageFormat string

const (
	ImageFormatPNG  ImageFormat = "image/png"
	ImageFormatJPEG ImageFormat = "image/jpeg"
)

// Input is a single encoded image submitted for recognition.
type Input struct {
	// ID is an optional caller identifier echoed back in the Result.
	ID string
	// Image is the encoded payload in the format given by Format.
	Image  []byte
	Format ImageFormat
	// PageIndex links the input back to the page the region came from.
	PageIndex int
	// DPI is the effective resolution of the image; zero means unknown.
	DPI int
	// Languages holds trained-data hints such as "eng" or "deu".
	Languages []string
	// Metadata passes provider-specific knobs (e.g. Tesseract's psm)
	// without widening the API.
	Metadata map[string]string
}

// InputOption mutates an input before submission.
type InputOption func(*Input)

// WithLanguages sets language hints.
func WithLanguages(langs ...string) InputOption {
	return func(in *Input) { in.Languages = append([]string(nil), langs...) }
}

// WithDPI sets the effective resolution.
func WithDPI(dpi int) InputOption {
	return func(in *Input) { in.DPI = dpi }
}

// WithMetadata sets provider-specific variables.
func WithMetadata(metadata map[string]string) InputOption {
	return func(in *Input) {
		if len(metadata) == 0 {
			in.Metadata = nil
			return
		}
		in.Metadata = make(map[string]string, len(metadata))
		for k, v := range metadata {
			in.Metadata[k] = v
		}
	}
}

// Result is the recognition output for one input.
type Result struct {
	InputID   string
	PlainText string
}

// Engine is the provider contract: one image in, one result out.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, input Input) (Result, error)
}

type noopEngine struct{}

func (noopEngine) Name() string { return "noop" }

func (noopEngine) Recognize(_ context.Context, in Input) (Result, error) {
	return Result{InputID: in.ID}, nil
}

var defaultEngine Engine = noopEngine{}

// DefaultEngine returns the process-wide default engine. It is the no-op
// engine until a provider package (like tesseract) installs itself.
func DefaultEngine() Engine { return defaultEngine }

// SetDefaultEngine installs the default engine.
func SetDefaultEngine(engine Engine) {
	if engine != nil {
		defaultEngine = engine
	}
}
