// Package remover orchestrates the processing pipeline: normalize, segment,
// enhance, persist. HTTP handlers and queue workers both drive it.
package remover

import (
	"context"
	"fmt"
	"image"
	"time"

	"go.uber.org/zap"

	"github.com/eleblu/bluswipe/internal/metrics"
	"github.com/eleblu/bluswipe/internal/services/processor"
	"github.com/eleblu/bluswipe/internal/services/storage"
)

// Session is the slice of the model session manager the service needs.
type Session interface {
	Remove(ctx context.Context, img image.Image) (image.Image, error)
	Switch(ctx context.Context, model string) error
	Model() string
	Ready() bool
}

type Config struct {
	ItemTimeout   time.Duration
	MaxBatchFiles int
}

type Service struct {
	session     Session
	processor   *processor.Processor
	storage     *storage.StorageService
	metrics     *metrics.Metrics
	logger      *zap.Logger
	itemTimeout time.Duration
	maxBatch    int
}

func NewService(session Session, proc *processor.Processor, store *storage.StorageService, m *metrics.Metrics, cfg Config, logger *zap.Logger) *Service {
	return &Service{
		session:     session,
		processor:   proc,
		storage:     store,
		metrics:     m,
		logger:      logger,
		itemTimeout: cfg.ItemTimeout,
		maxBatch:    cfg.MaxBatchFiles,
	}
}

// Options modify a single removal. An empty Model keeps the active model;
// Enhancement 0 or 1 leaves sharpness alone. Callers clamp Enhancement
// before passing it in.
type Options struct {
	Model       string
	Enhancement float64
}

func (o Options) normalized(activeModel string) Options {
	if o.Model == "" {
		o.Model = activeModel
	}
	if o.Enhancement == 0 {
		o.Enhancement = 1
	}
	return o
}

func (s *Service) Ready() bool {
	return s.session.Ready()
}

func (s *Service) CurrentModel() string {
	return s.session.Model()
}

// Remove runs the single-image pipeline and returns the cutout as PNG
// bytes. Results are cached keyed by the input bytes and options; cache
// failures are logged, never fatal.
func (s *Service) Remove(ctx context.Context, data []byte, opts Options) ([]byte, error) {
	opts = opts.normalized(s.session.Model())

	cacheKey := s.storage.GenerateCacheKey(data, opts.Model, opts.Enhancement)
	if cached, err := s.storage.GetFromCache(ctx, cacheKey); err != nil {
		s.logger.Warn("cache lookup failed", zap.Error(err))
	} else if cached != nil {
		return cached, nil
	}

	cut, err := s.removeImage(ctx, processor.FromBytes(data), opts)
	if err != nil {
		return nil, err
	}

	out, err := processor.EncodePNG(cut)
	if err != nil {
		return nil, err
	}

	if err := s.storage.SetCache(ctx, cacheKey, out); err != nil {
		s.logger.Warn("cache store failed", zap.Error(err))
	}

	return out, nil
}

// ReplaceBackground removes the background, then composites the cutout over
// the replacement. Returns encoded bytes plus their content type.
func (s *Service) ReplaceBackground(ctx context.Context, data []byte, bg processor.BackgroundSpec, format string, opts Options) ([]byte, string, error) {
	opts = opts.normalized(s.session.Model())

	cut, err := s.removeImage(ctx, processor.FromBytes(data), opts)
	if err != nil {
		return nil, "", err
	}

	composed, err := s.processor.Composite(cut, bg)
	if err != nil {
		return nil, "", fmt.Errorf("background replacement failed: %w", err)
	}

	encoded, err := processor.Encode(composed, format)
	if err != nil {
		return nil, "", err
	}

	contentType := "image/png"
	if format == "jpeg" || format == "jpg" {
		contentType = "image/jpeg"
	}
	return encoded, contentType, nil
}

// removeImage is the shared pipeline core: normalize, ensure the requested
// model is active, segment, enhance.
func (s *Service) removeImage(ctx context.Context, src processor.Source, opts Options) (image.Image, error) {
	img, err := s.processor.Normalize(src)
	if err != nil {
		return nil, err
	}

	if err := s.ensureModel(ctx, opts.Model); err != nil {
		return nil, err
	}
	// A broken-but-known model falls back to the default during the switch,
	// so read the truth back for metric labels.
	model := s.session.Model()

	s.metrics.InferenceStarted()
	start := time.Now()
	cut, err := s.session.Remove(ctx, img)
	s.metrics.InferenceDone()
	if err != nil {
		s.metrics.ObserveRemoval(model, "error", 0)
		return nil, fmt.Errorf("background removal failed: %w", err)
	}
	s.metrics.ObserveRemoval(model, "success", time.Since(start).Seconds())

	return s.processor.Enhance(cut, opts.Enhancement), nil
}

func (s *Service) ensureModel(ctx context.Context, model string) error {
	if model == "" || model == s.session.Model() {
		return nil
	}
	return s.session.Switch(ctx, model)
}
