package rembg

import (
	"context"
	"fmt"
	"image"
	"sync"
	"time"

	"go.uber.org/zap"
)

// SessionManager owns the active model session. Removals run under the read
// lock, switches under the write lock, so a switch never races an in-flight
// removal.
type SessionManager struct {
	baseURL string
	timeout time.Duration
	logger  *zap.Logger

	mu      sync.RWMutex
	model   string
	remover Remover
}

// NewSessionManager warms up model and returns a ready manager. A model
// that fails to warm up falls back to DefaultModel once; if that also fails
// the returned error wraps ErrModelInit.
func NewSessionManager(ctx context.Context, baseURL, model string, timeout time.Duration, logger *zap.Logger) (*SessionManager, error) {
	if model == "" {
		model = DefaultModel
	}
	m := &SessionManager{
		baseURL: baseURL,
		timeout: timeout,
		logger:  logger,
	}
	if err := m.initLocked(ctx, model); err != nil {
		return nil, err
	}
	return m, nil
}

// initLocked (re)builds the session. Callers hold the write lock, except
// the constructor where the manager is not yet shared.
func (m *SessionManager) initLocked(ctx context.Context, model string) error {
	m.logger.Info("initializing model", zap.String("model", model))

	remover, err := m.warmup(ctx, model)
	if err != nil {
		m.logger.Error("failed to initialize model", zap.String("model", model), zap.Error(err))
		if model == DefaultModel {
			return fmt.Errorf("%w: %s: %v", ErrModelInit, model, err)
		}
		m.logger.Warn("falling back to default model", zap.String("fallback", DefaultModel))
		remover, err = m.warmup(ctx, DefaultModel)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrModelInit, DefaultModel, err)
		}
		model = DefaultModel
	}

	m.model = model
	m.remover = remover
	m.logger.Info("model initialized", zap.String("model", model))
	return nil
}

// warmup runs a 1x1 removal, forcing the server to load the model so a bad
// name fails here instead of on the first user request.
func (m *SessionManager) warmup(ctx context.Context, model string) (Remover, error) {
	client := NewClient(m.baseURL, model, m.timeout)
	probe := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	if _, err := client.Remove(ctx, probe); err != nil {
		return nil, err
	}
	return client, nil
}

// Remove runs the active session. The read lock is held for the duration.
func (m *SessionManager) Remove(ctx context.Context, img image.Image) (image.Image, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.remover == nil {
		return nil, ErrModelInit
	}
	return m.remover.Remove(ctx, img)
}

// Switch activates a different model. Unknown names are rejected without
// touching the active session; switching to the active model re-warms it.
func (m *SessionManager) Switch(ctx context.Context, model string) error {
	if !KnownModel(model) {
		return fmt.Errorf("%w: %s", ErrUnknownModel, model)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.initLocked(ctx, model)
}

// Model returns the active model name.
func (m *SessionManager) Model() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.model
}

// Ready reports whether a session is active.
func (m *SessionManager) Ready() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.remover != nil
}
