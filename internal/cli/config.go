package cli

import (
	"github.com/evcraddock/comment-utils/internal/config"
)

// configPath returns the moderation config file named by --config, then
// CU_CONFIG, then the default location.
func configPath() (string, error) {
	if flagConfig != "" {
		return flagConfig, nil
	}
	settings, err := config.FromEnv()
	if err != nil {
		return "", err
	}
	return settings.FilePath()
}

// loadConfig reads the moderation config file.
// Returns a zero-value config if the file doesn't exist.
func loadConfig() (string, config.File, error) {
	path, err := configPath()
	if err != nil {
		return "", config.File{}, err
	}
	f, err := config.LoadFile(path)
	return path, f, err
}
