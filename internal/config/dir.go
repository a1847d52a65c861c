package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// Dir returns the global tuture configuration directory, searched for
// tuture.yml after the working directory.
//
// Resolution:
//   - $TUTURE_CONFIG_HOME if set (explicit override)
//   - $XDG_CONFIG_HOME/tuture if set (respects XDG on any platform)
//   - %AppData%/tuture on Windows
//   - ~/.config/tuture on macOS and Linux
func Dir() string {
	if dir := os.Getenv("TUTURE_CONFIG_HOME"); dir != "" {
		return dir
	}

	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "tuture")
	}

	if runtime.GOOS == "windows" {
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "tuture")
		}
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "tuture")
}
