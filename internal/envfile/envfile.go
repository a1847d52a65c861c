// Package envfile loads tuture settings from dotenv files so the config
// loader sees them as environment variables. Variables already set in the
// environment take precedence.
package envfile

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"strings"

	"github.com/spf13/viper"
)

// Prefix selects the variables Load exports.
const Prefix = "TUTURE_"

// Load reads a dotenv file and exports every variable starting with Prefix
// that is not already set. Other variables in the file are ignored.
// A missing file is not an error.
func Load(path string) error {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("stat env file %s: %w", path, err)
	}
	if info.IsDir() {
		return nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("reading env file %s: %w", path, err)
	}

	prefix := strings.ToLower(Prefix)
	keys := v.AllKeys()
	slices.Sort(keys)
	for _, key := range keys {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		name := strings.ToUpper(key)
		if _, set := os.LookupEnv(name); set {
			continue
		}
		if err := os.Setenv(name, v.GetString(key)); err != nil {
			return fmt.Errorf("setting %s: %w", name, err)
		}
	}
	return nil
}
