package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config is the full application configuration, loaded from a YAML
// file under the application directory.
type Config struct {
	DefaultDriver string `yaml:"default_driver" validate:"required"`
	JobDir        string `yaml:"jobdir" validate:"required"`
	JobOutputDir  string `yaml:"joboutputdir" validate:"required"`
	HistoryLength int    `yaml:"history_length" validate:"gte=0"`

	Slurm    SlurmConfig    `yaml:"slurm_driver"`
	HTCondor HTCondorConfig `yaml:"htcondor_driver"`
	Prun     PrunConfig     `yaml:"prun_driver"`

	Notify []NotifierConfig `yaml:"notify"`
}

// SlurmConfig holds the Slurm driver's required account/partition
// defaults.
type SlurmConfig struct {
	Account      string `yaml:"account" validate:"omitempty,required"`
	NodeSize     int    `yaml:"node_size" validate:"omitempty,gt=0"`
	DefaultQueue string `yaml:"default_queue" validate:"omitempty,required"`
}

// HTCondorConfig holds the HTCondor driver's submission defaults. The
// shared user-log location is derived from the application directory,
// not configured here.
type HTCondorConfig struct {
	DefaultUniverse string `yaml:"default_universe"`
	SubmitFileExtra string `yaml:"submitfile_extra"`
}

// PrunConfig holds the Grid/Panda driver's environment wiring.
type PrunConfig struct {
	PandaPythonPath    string `yaml:"PANDA_PYTHONPATH"`
	PathenaGridSetupSh string `yaml:"PATHENA_GRID_SETUP_SH"`
	EMIPath            string `yaml:"emi_path"`
}

// NotifierConfig is one entry in the notify list; Extra carries
// notifier-specific keys dispatch is out of scope for, per spec.
type NotifierConfig struct {
	Name  string         `yaml:"name" validate:"required"`
	Extra map[string]any `yaml:",inline"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load reads and validates a Config from path.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	if cfg.HistoryLength == 0 {
		cfg.HistoryLength = 1000
	}

	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return &cfg, nil
}

// Save marshals cfg as YAML and writes it to path.
func Save(path string, cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config: refusing to save invalid config: %w", err)
	}
	out, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config: marshalling: %w", err)
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return fmt.Errorf("config: writing %s: %w", path, err)
	}
	return nil
}
