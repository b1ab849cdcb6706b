package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Settings is the persisted application configuration: a JSON document of
// nested string-keyed sections with scalar leaves. A file written by an older
// build is merged over the current defaults, so new keys appear without
// invalidating the file.
type Settings struct {
	path string
	data map[string]interface{}
}

func defaultSettings() map[string]interface{} {
	return map[string]interface{}{
		"models": map[string]interface{}{
			"default": "u2net",
			"available": []interface{}{
				"u2net",
				"u2netp",
				"u2net_human_seg",
				"silueta",
				"isnet-general-use",
			},
		},
		"processing": map[string]interface{}{
			"max_image_size":   2048,
			"quality":          "high",
			"edge_enhancement": 1.0,
			"use_gpu":          true,
			"batch_size":       1,
			"item_timeout":     60,
		},
		"web": map[string]interface{}{
			"host":             "127.0.0.1",
			"port":             8000,
			"max_file_size":    10 * 1024 * 1024,
			"max_batch_files":  10,
			"cleanup_interval": 3600,
			"file_retention":   3600,
		},
		"desktop": map[string]interface{}{
			"window_size":  []interface{}{1000, 700},
			"theme":        "dark",
			"auto_save":    true,
			"show_preview": true,
		},
		"paths": map[string]interface{}{
			"uploads": "uploads",
			"outputs": "outputs",
			"temp":    "temp",
			"logs":    "logs",
		},
		"logging": map[string]interface{}{
			"level": "info",
		},
	}
}

// LoadSettings reads the settings document at path, merging file values over
// the defaults (file wins, missing keys are filled in). A missing file is
// created with the defaults. The returned Settings is always usable; the
// error only reports why the file itself could not be honored.
func LoadSettings(path string) (*Settings, error) {
	if path == "" {
		path = defaultSettingsPath()
	}
	s := &Settings{path: path, data: defaultSettings()}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			if saveErr := s.Save(); saveErr != nil {
				return s, fmt.Errorf("failed to write default settings: %w", saveErr)
			}
			return s, nil
		}
		return s, fmt.Errorf("failed to read settings: %w", err)
	}

	var loaded map[string]interface{}
	if err := json.Unmarshal(raw, &loaded); err != nil {
		return s, fmt.Errorf("failed to parse settings: %w", err)
	}

	s.data = deepMerge(s.data, loaded)
	return s, nil
}

func defaultSettingsPath() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "bluswipe", "config.json")
	}
	return filepath.Join("config", "config.json")
}

func deepMerge(base, update map[string]interface{}) map[string]interface{} {
	for key, value := range update {
		if baseMap, ok := base[key].(map[string]interface{}); ok {
			if updateMap, ok := value.(map[string]interface{}); ok {
				base[key] = deepMerge(baseMap, updateMap)
				continue
			}
		}
		base[key] = value
	}
	return base
}

// Get resolves a dotted key ("web.port"). Any missing segment, or a
// traversal through a non-section value, yields def.
func (s *Settings) Get(key string, def interface{}) interface{} {
	cur := interface{}(s.data)
	for _, part := range strings.Split(key, ".") {
		section, ok := cur.(map[string]interface{})
		if !ok {
			return def
		}
		cur, ok = section[part]
		if !ok {
			return def
		}
	}
	return cur
}

// GetInt tolerates both native ints (defaults) and float64 (decoded JSON).
func (s *Settings) GetInt(key string, def int) int {
	switch v := s.Get(key, nil).(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return def
}

func (s *Settings) GetInt64(key string, def int64) int64 {
	switch v := s.Get(key, nil).(type) {
	case int:
		return int64(v)
	case int64:
		return v
	case float64:
		return int64(v)
	}
	return def
}

func (s *Settings) GetFloat(key string, def float64) float64 {
	switch v := s.Get(key, nil).(type) {
	case int:
		return float64(v)
	case float64:
		return v
	}
	return def
}

func (s *Settings) GetString(key, def string) string {
	if v, ok := s.Get(key, nil).(string); ok {
		return v
	}
	return def
}

func (s *Settings) GetBool(key string, def bool) bool {
	if v, ok := s.Get(key, nil).(bool); ok {
		return v
	}
	return def
}

// Set writes a dotted key, creating intermediate sections as needed. A
// scalar in the middle of the path is replaced by a section.
func (s *Settings) Set(key string, value interface{}) {
	parts := strings.Split(key, ".")
	section := s.data
	for _, part := range parts[:len(parts)-1] {
		next, ok := section[part].(map[string]interface{})
		if !ok {
			next = map[string]interface{}{}
			section[part] = next
		}
		section = next
	}
	section[parts[len(parts)-1]] = value
}

func (s *Settings) Save() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create settings dir: %w", err)
	}
	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	return os.WriteFile(s.path, raw, 0o644)
}

func (s *Settings) Path() string {
	return s.path
}
