package processor

import (
	"bytes"
	"image"

	"github.com/disintegration/imaging"
	exif "github.com/dsoprea/go-exif/v3"
)

// applyOrientation re-bakes the EXIF orientation (tags 2 through 8) into the
// pixel data so later stages never see a sideways photo. Images without
// usable EXIF come back unchanged.
func applyOrientation(raw []byte, img image.Image) image.Image {
	tags, _, err := exif.GetFlatExifDataUniversalSearchWithReadSeeker(bytes.NewReader(raw), nil, true)
	if err != nil {
		return img
	}

	orientation := 0
	for _, tag := range tags {
		if tag.TagName != "Orientation" {
			continue
		}
		switch v := tag.Value.(type) {
		case []uint16:
			if len(v) > 0 {
				orientation = int(v[0])
			}
		case uint16:
			orientation = int(v)
		}
		break
	}

	switch orientation {
	case 2:
		return imaging.FlipH(img)
	case 3:
		return imaging.Rotate180(img)
	case 4:
		return imaging.FlipV(img)
	case 5:
		return imaging.Transpose(img)
	case 6:
		return imaging.Rotate270(img)
	case 7:
		return imaging.Transverse(img)
	case 8:
		return imaging.Rotate90(img)
	default:
		return img
	}
}
