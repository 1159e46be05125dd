package render

import (
	"bytes"
	"fmt"
	"unicode/utf8"

	"github.com/fogleman/gg"

	"media-normalizer/internal/domain"
)

// MediaType is the MIME type of every successful render.
const MediaType = "image/png"

// Card palette: white ground, coral accent rule, near-black text.
var (
	colorBackground = [3]int{255, 255, 255}
	colorAccent     = [3]int{255, 107, 107}
	colorText       = [3]int{45, 52, 54}
)

// Options controls renderer limits and typography.
type Options struct {
	DefaultFont   string
	FontSize      float64
	MaxTextLength int
	LineSpacing   float64
}

// Renderer produces deterministic PNG rasters from render specs.
type Renderer struct {
	registry *Registry
	opts     Options
}

// NewRenderer builds a renderer over an immutable font registry.
func NewRenderer(registry *Registry, opts Options) *Renderer {
	if opts.FontSize <= 0 {
		opts.FontSize = 36
	}
	if opts.LineSpacing <= 0 {
		opts.LineSpacing = 1.5
	}
	return &Renderer{registry: registry, opts: opts}
}

// Render composes spec.Text over a fresh canvas and returns PNG bytes.
// Identical specs produce byte-identical output.
func (r *Renderer) Render(spec domain.RenderSpec) ([]byte, error) {
	if spec.Width <= 0 || spec.Height <= 0 {
		return nil, &domain.RenderError{
			Cause: fmt.Sprintf("canvas dimensions must be positive, got %dx%d", spec.Width, spec.Height),
		}
	}
	if spec.Text == "" {
		return nil, &domain.RenderError{Cause: "text is empty"}
	}
	if r.opts.MaxTextLength > 0 && utf8.RuneCountInString(spec.Text) > r.opts.MaxTextLength {
		return nil, &domain.RenderError{
			Cause: fmt.Sprintf(
				"text length %d exceeds maximum %d",
				utf8.RuneCountInString(spec.Text), r.opts.MaxTextLength,
			),
		}
	}

	fontName := spec.Font
	if fontName == "" {
		fontName = r.opts.DefaultFont
	}
	face, err := r.registry.Face(fontName, r.opts.FontSize)
	if err != nil {
		return nil, err
	}
	defer face.Close()

	padding := float64(spec.Width) / 18
	if padding < 8 {
		padding = 8
	}

	dc := gg.NewContext(spec.Width, spec.Height)
	dc.SetRGB255(colorBackground[0], colorBackground[1], colorBackground[2])
	dc.Clear()

	// Accent rule across the top of the card.
	dc.SetRGB255(colorAccent[0], colorAccent[1], colorAccent[2])
	dc.DrawRectangle(0, 0, float64(spec.Width), padding/2)
	dc.Fill()

	dc.SetFontFace(face)
	dc.SetRGB255(colorText[0], colorText[1], colorText[2])
	dc.DrawStringWrapped(
		spec.Text,
		padding, padding,
		0, 0,
		float64(spec.Width)-2*padding,
		r.opts.LineSpacing,
		gg.AlignLeft,
	)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, &domain.RenderError{Cause: "png encoding failed", Err: err}
	}
	return buf.Bytes(), nil
}
