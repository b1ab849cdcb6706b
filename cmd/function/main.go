package main

import (
	"context"
	"encoding/json"
	"log"
	"os"

	"github.com/eleblu/bluswipe/internal/config"
	"github.com/eleblu/bluswipe/internal/function"
	"github.com/eleblu/bluswipe/internal/rembg"
	"github.com/eleblu/bluswipe/internal/services/processor"
	"go.uber.org/zap"
)

// Single-shot runner for the serverless handler: one proxy-integration
// event on stdin, one response on stdout. Logs go to stderr so the
// response stream stays clean.
func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	var event function.Event
	if err := json.NewDecoder(os.Stdin).Decode(&event); err != nil {
		logger.Fatal("Failed to decode event", zap.Error(err))
	}

	ctx := context.Background()

	session, err := rembg.NewSessionManager(ctx, cfg.Rembg.URL, rembg.DefaultModel, cfg.Rembg.Timeout, logger)
	if err != nil {
		logger.Fatal("Failed to initialize segmentation session", zap.Error(err))
	}

	handler := function.NewHandler(session, processor.New(processor.DefaultMaxDimension), logger)
	resp := handler.Handle(ctx, event)

	if err := json.NewEncoder(os.Stdout).Encode(resp); err != nil {
		logger.Fatal("Failed to encode response", zap.Error(err))
	}
}
