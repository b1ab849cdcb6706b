package models

import "time"

type HealthCheck struct {
	Status          string            `json:"status"`
	ModelLoaded     bool              `json:"model_loaded"`
	Version         string            `json:"version"`
	AvailableModels []string          `json:"available_models"`
	Services        map[string]string `json:"services"`
	Timestamp       time.Time         `json:"timestamp"`
}

type ModelsResponse struct {
	Models       []string          `json:"models"`
	CurrentModel string            `json:"current_model"`
	Descriptions map[string]string `json:"descriptions"`
}
