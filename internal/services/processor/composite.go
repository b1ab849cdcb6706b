package processor

import (
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// BackgroundSpec picks the replacement background: a solid color, a file on
// disk, a decoded raster, or raw encoded bytes (a downloaded URL resolves to
// bytes before it reaches the processor). Exactly one field is set.
type BackgroundSpec struct {
	Color *color.NRGBA
	Path  string
	Img   image.Image
	Data  []byte
}

func BackgroundColor(c color.NRGBA) BackgroundSpec { return BackgroundSpec{Color: &c} }

func BackgroundFile(path string) BackgroundSpec { return BackgroundSpec{Path: path} }

func BackgroundImage(img image.Image) BackgroundSpec { return BackgroundSpec{Img: img} }

func BackgroundBytes(data []byte) BackgroundSpec { return BackgroundSpec{Data: data} }

// Composite lays fg over the resolved background. The background is
// stretched to fg's exact dimensions with Lanczos resampling and flattened
// to opaque RGB before blending. A foreground without an alpha channel is
// returned unchanged.
func (p *Processor) Composite(fg image.Image, bg BackgroundSpec) (image.Image, error) {
	if fg == nil {
		return nil, fmt.Errorf("nil foreground")
	}
	if !hasAlpha(fg) {
		return fg, nil
	}

	bgImg, err := p.resolveBackground(fg.Bounds(), bg)
	if err != nil {
		return nil, err
	}

	out := imaging.Overlay(bgImg, fg, image.Pt(0, 0), 1.0)
	return Flatten(out), nil
}

func (p *Processor) resolveBackground(bounds image.Rectangle, bg BackgroundSpec) (*image.NRGBA, error) {
	w, h := bounds.Dx(), bounds.Dy()

	if bg.Color != nil {
		return imaging.New(w, h, *bg.Color), nil
	}

	var (
		img image.Image
		err error
	)
	switch {
	case bg.Path != "":
		img, err = imaging.Open(bg.Path)
		if err != nil {
			err = fmt.Errorf("failed to open background: %w", err)
		}
	case bg.Img != nil:
		img = bg.Img
	case len(bg.Data) > 0:
		img, err = decode(bg.Data)
	default:
		err = fmt.Errorf("no background specified")
	}
	if err != nil {
		return nil, err
	}

	return Flatten(imaging.Resize(img, w, h, imaging.Lanczos)), nil
}

// hasAlpha reports whether the raster type carries an alpha channel. This is
// a mode check, not a content scan; an opaque NRGBA still counts.
func hasAlpha(img image.Image) bool {
	switch img.(type) {
	case *image.NRGBA, *image.NRGBA64, *image.RGBA, *image.RGBA64:
		return true
	}
	return false
}
