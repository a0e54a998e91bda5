package command

import (
	"os"

	"gopkg.in/yaml.v2"
)

// Config is the optional YAML config file both subcommands accept via
// -config, matching the teacher's engine.Config/yaml.NewDecoder idiom.
type Config struct {
	DSN      string `yaml:"dsn"`
	LogLevel string `yaml:"log_level"`
}

func loadConfig(path string) (*Config, error) {
	cfg := &Config{DSN: ":memory:", LogLevel: "info"}
	if path == "" {
		return cfg, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
