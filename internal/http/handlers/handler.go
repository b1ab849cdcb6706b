package handlers

import (
	"github.com/eleblu/bluswipe/internal/config"
	"github.com/eleblu/bluswipe/internal/services/queue"
	"github.com/eleblu/bluswipe/internal/services/remover"
	"github.com/eleblu/bluswipe/internal/services/storage"
	"go.uber.org/zap"
)

const (
	apiVersion = "1.0.0"

	fileParamKey  = "file"
	filesParamKey = "files"
	bgParamKey    = "bg"
)

type Handler struct {
	remover  *remover.Service
	storage  *storage.StorageService
	queue    *queue.QueueService
	settings *config.Settings
	logger   *zap.Logger
}

// NewHandler wires the HTTP surface. queue may be nil when RabbitMQ is
// not configured; the async endpoints then answer 503.
func NewHandler(
	remover *remover.Service,
	storage *storage.StorageService,
	queue *queue.QueueService,
	settings *config.Settings,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		remover:  remover,
		storage:  storage,
		queue:    queue,
		settings: settings,
		logger:   logger,
	}
}
