package processor

import "image"

// Source is a single image input: raw encoded bytes, a file on disk, or an
// already decoded raster. Exactly one field is set; the constructors below
// keep it that way.
type Source struct {
	Data []byte
	Path string
	Img  image.Image
}

func FromBytes(data []byte) Source { return Source{Data: data} }

func FromFile(path string) Source { return Source{Path: path} }

func FromImage(img image.Image) Source { return Source{Img: img} }
