package processor

import (
	"image"

	"github.com/disintegration/imaging"
)

// Enhance applies a sharpness blend around a smoothed copy of img:
// strength 0 yields the smoothed image, 1 the original, values above 1
// oversharpen. Strength 1 returns img itself untouched. The alpha channel
// is preserved as-is.
func (p *Processor) Enhance(img image.Image, strength float64) image.Image {
	if img == nil || strength == 1.0 {
		return img
	}

	orig := imaging.Clone(img)
	blurred := imaging.Blur(orig, 1.0)
	out := imaging.Clone(orig)

	for i := range out.Pix {
		if i%4 == 3 {
			continue
		}
		o := float64(orig.Pix[i])
		b := float64(blurred.Pix[i])
		v := int(b + strength*(o-b) + 0.5)
		if v < 0 {
			v = 0
		} else if v > 255 {
			v = 255
		}
		out.Pix[i] = uint8(v)
	}

	return out
}
