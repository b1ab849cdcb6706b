// Package rembg wraps an external segmentation runtime reachable over HTTP.
// The runtime is an opaque capability: send an image, get the same image
// back with the background turned transparent.
package rembg

import (
	"context"
	"errors"
	"image"
)

// DefaultModel is loaded at startup and used as the fallback when another
// model fails to initialize.
const DefaultModel = "u2net"

var (
	ErrUnknownModel = errors.New("unknown model")
	ErrModelInit    = errors.New("model initialization failed")
)

// Remover turns an image into the same image with the background removed.
// Implementations must be safe for concurrent use.
type Remover interface {
	Remove(ctx context.Context, img image.Image) (image.Image, error)
}

// modelOrder keeps listings stable; modelDescriptions doubles as the
// registry of known names.
var modelOrder = []string{
	"u2net",
	"u2netp",
	"u2net_human_seg",
	"silueta",
	"isnet-general-use",
}

var modelDescriptions = map[string]string{
	"u2net":             "General purpose - Good for most images",
	"u2netp":            "Lightweight version - Faster processing",
	"u2net_human_seg":   "Optimized for people",
	"silueta":           "High accuracy for objects",
	"isnet-general-use": "Latest model - Best quality",
}

// AvailableModels lists the models the runtime knows how to load.
func AvailableModels() []string {
	out := make([]string, len(modelOrder))
	copy(out, modelOrder)
	return out
}

// ModelDescriptions maps each known model to a short description.
func ModelDescriptions() map[string]string {
	out := make(map[string]string, len(modelDescriptions))
	for k, v := range modelDescriptions {
		out[k] = v
	}
	return out
}

func KnownModel(name string) bool {
	_, ok := modelDescriptions[name]
	return ok
}

// Passthrough is a Remover that returns its input unchanged. It stands in
// for the real runtime in tests and offline development.
type Passthrough struct{}

func (Passthrough) Remove(_ context.Context, img image.Image) (image.Image, error) {
	return img, nil
}
