package processor

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

// DefaultMaxDimension is the largest width or height accepted anywhere in
// the pipeline. Both the single-image API and the batch path enforce it.
const DefaultMaxDimension = 4096

// Processor turns arbitrary image inputs into the canonical working form: an
// opaque NRGBA raster within the configured dimension cap.
type Processor struct {
	maxDim int
}

// New returns a Processor that rejects images wider or taller than maxDim.
// maxDim <= 0 disables the cap.
func New(maxDim int) *Processor {
	return &Processor{maxDim: maxDim}
}

// Normalize resolves src to a decoded raster, bakes in the EXIF orientation
// when the encoded bytes carry one, enforces the dimension cap and flattens
// any alpha channel. The result is always a fresh NRGBA; src is not mutated.
func (p *Processor) Normalize(src Source) (*image.NRGBA, error) {
	img, raw, err := p.resolve(src)
	if err != nil {
		return nil, err
	}

	if len(raw) > 0 {
		img = applyOrientation(raw, img)
	}

	if p.maxDim > 0 {
		b := img.Bounds()
		if b.Dx() > p.maxDim || b.Dy() > p.maxDim {
			return nil, fmt.Errorf("%w: %dx%d (max %dx%d)",
				ErrTooLarge, b.Dx(), b.Dy(), p.maxDim, p.maxDim)
		}
	}

	return Flatten(img), nil
}

func (p *Processor) resolve(src Source) (image.Image, []byte, error) {
	switch {
	case src.Img != nil:
		return src.Img, nil, nil
	case src.Path != "":
		raw, err := os.ReadFile(src.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read image file: %w", err)
		}
		img, err := decode(raw)
		return img, raw, err
	default:
		img, err := decode(src.Data)
		return img, src.Data, err
	}
}

func decode(raw []byte) (image.Image, error) {
	if len(raw) == 0 {
		return nil, ErrEmptyImage
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return img, nil
}

// Flatten copies img to NRGBA with every pixel fully opaque. Alpha values
// are dropped, not composited, matching an RGB mode conversion.
func Flatten(img image.Image) *image.NRGBA {
	if img == nil {
		return nil
	}
	out := imaging.Clone(img)
	for i := 3; i < len(out.Pix); i += 4 {
		out.Pix[i] = 0xff
	}
	return out
}
