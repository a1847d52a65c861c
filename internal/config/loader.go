package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	configType = "yaml"
	envPrefix  = "TUTURE"
)

// explicitEnv maps keys whose environment names do not follow the
// automatic upper-casing.
var explicitEnv = map[string]string{
	"ignoredFiles": "TUTURE_IGNORED_FILES",
	"logLevel":     "TUTURE_LOG_LEVEL",
}

// Load resolves configuration from defaults, a config file and TUTURE_*
// environment variables, in increasing priority.
//
// When configPath is empty, tuture.yml (or tuture.yaml) is looked up in
// workDir and then in Dir(). A missing file is not an error; an explicit
// configPath that does not exist is.
func Load(configPath, workDir string) (*Config, error) {
	v := viper.New()
	applyDefaults(v)

	v.SetConfigType(configType)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range explicitEnv {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", env, err)
		}
	}

	file := configPath
	if file == "" {
		file = findConfigFile(workDir, Dir())
	}
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.File = file

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

func applyDefaults(v *viper.Viper) {
	v.SetDefault("ignoredFiles", []string{})
	v.SetDefault("root", DefaultRoot)
	v.SetDefault("artifact", DefaultArtifact)
	v.SetDefault("concurrency", runtime.NumCPU())
	v.SetDefault("git", DefaultGit)
	v.SetDefault("logLevel", DefaultLogLevel)
}

func findConfigFile(dirs ...string) string {
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		for _, name := range []string{FileName, "tuture.yaml"} {
			path := filepath.Join(dir, name)
			if info, err := os.Stat(path); err == nil && !info.IsDir() {
				return path
			}
		}
	}
	return ""
}

const fileHeader = "# tuture configuration\n# ignoredFiles: base-name globs left out of the diff artifact\n"

// Save writes cfg as YAML. It refuses to overwrite an existing file unless
// force is set, returning fs.ErrExist.
func Save(path string, cfg *Config, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s: %w", path, fs.ErrExist)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("stat %s: %w", path, err)
		}
	}

	out := struct {
		IgnoredFiles []string `yaml:"ignoredFiles"`
		Root         string   `yaml:"root"`
		Artifact     string   `yaml:"artifact"`
	}{cfg.IgnoredFiles, cfg.Root, cfg.Artifact}
	if out.IgnoredFiles == nil {
		out.IgnoredFiles = []string{}
	}

	data, err := yaml.Marshal(out)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(path, append([]byte(fileHeader), data...), 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
