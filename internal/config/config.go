// Package config loads the assistant's local settings. Settings live
// in a JSON file in the platform data directory and are written by the
// settings window; the core reloads them on change via Watch.
//
// Platform paths:
//
//	macOS:   ~/Library/Application Support/Pointer/
//	Windows: %AppData%\Pointer\
//	Linux:   ~/.config/pointer/
//
// Override with the POINTER_DATA_DIR environment variable.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

const settingsFile = "settings.json"

// Settings holds local configuration for the assistant core.
type Settings struct {
	// BackendURL is the local backend's websocket control channel.
	BackendURL string `json:"backendUrl"`

	// Endpoint is the base URL of the remote inference service.
	Endpoint string `json:"endpoint"`

	// APIToken authenticates chat and memory calls. Supplied by the
	// settings window; token acquisition is not the core's concern.
	APIToken string `json:"apiToken"`

	// RAGTopK is the default result count for memory search.
	RAGTopK int `json:"ragTopK"`
}

// DefaultSettings returns sensible defaults for a first run.
func DefaultSettings() Settings {
	return Settings{
		BackendURL: "ws://127.0.0.1:8765/ws",
		RAGTopK:    5,
	}
}

// DataDir returns the platform-appropriate data directory.
// Set POINTER_DATA_DIR to override.
func DataDir() (string, error) {
	if dir := os.Getenv("POINTER_DATA_DIR"); dir != "" {
		return dir, nil
	}

	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine config directory: %w", err)
	}

	// Linux: lowercase per XDG convention
	// macOS/Windows: title case per platform convention
	if runtime.GOOS == "linux" {
		return filepath.Join(configDir, "pointer"), nil
	}
	return filepath.Join(configDir, "Pointer"), nil
}

// SettingsPath returns the path of the settings file.
func SettingsPath() (string, error) {
	dataDir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dataDir, settingsFile), nil
}

// LoadSettings loads local settings, creating defaults if needed.
// String fields go through environment expansion, so a settings file
// can reference $POINTER_API_TOKEN instead of embedding the secret.
func LoadSettings() (*Settings, error) {
	path, err := SettingsPath()
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create settings directory: %w", err)
	}

	data, err := os.ReadFile(path)
	if err == nil {
		var settings Settings
		if err := json.Unmarshal(data, &settings); err == nil {
			if settings.BackendURL == "" {
				settings.BackendURL = DefaultSettings().BackendURL
			}
			settings.Endpoint = os.ExpandEnv(settings.Endpoint)
			settings.APIToken = os.ExpandEnv(settings.APIToken)
			return &settings, nil
		}
	}

	settings := DefaultSettings()
	if err := SaveSettings(&settings); err != nil {
		return nil, err
	}
	return &settings, nil
}

// SaveSettings persists settings to disk.
func SaveSettings(settings *Settings) error {
	path, err := SettingsPath()
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}
