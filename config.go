package main

import (
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// messageEnv overrides the configured message.
const messageEnv = "SUPERDENSE_MESSAGE"

// Config holds all superdense configuration.
type Config struct {
	// Protocol
	Message string `yaml:"message"`
	Shots   int    `yaml:"shots"`
	Seed    uint64 `yaml:"seed"` // 0 seeds from the runtime

	// Output
	DiagramPath string `yaml:"diagram_path"`
	QASMPath    string `yaml:"qasm_path"` // empty disables the QASM dump

	Remote   RemoteConfig   `yaml:"remote"`
	Account  AccountConfig  `yaml:"account"`
	Backends []DeviceConfig `yaml:"backends"`

	Logging LoggingConfig `yaml:"logging"`
}

// RemoteConfig configures the remote run.
type RemoteConfig struct {
	Enabled           bool   `yaml:"enabled"`
	MinQubits         int    `yaml:"min_qubits"`
	OptimizationLevel int    `yaml:"optimization_level"`
	Timeout           string `yaml:"timeout"`     // empty waits forever
	QueueDelay        string `yaml:"queue_delay"` // per job queued ahead
}

// AccountConfig holds provider credentials.
type AccountConfig struct {
	Token string `yaml:"token"`
	Hub   string `yaml:"hub"`
}

// DeviceConfig describes one emulated device in the catalog.
type DeviceConfig struct {
	Name         string   `yaml:"name"`
	Hub          string   `yaml:"hub"`
	NumQubits    int      `yaml:"num_qubits"`
	Simulator    bool     `yaml:"simulator"`
	Operational  bool     `yaml:"operational"`
	PendingJobs  int      `yaml:"pending_jobs"`
	BasisGates   []string `yaml:"basis_gates"`
	ReadoutError float64  `yaml:"readout_error"`
	MaxShots     int      `yaml:"max_shots"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
	File  string `yaml:"file"`  // used while the viewer owns the terminal
}

var defaultBasis = []string{"id", "rz", "sx", "x", "cx"}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Message:     "10",
		Shots:       1024,
		DiagramPath: "circuit.txt",

		Remote: RemoteConfig{
			MinQubits:         5,
			OptimizationLevel: 3,
			QueueDelay:        "50ms",
		},

		Account: AccountConfig{
			Hub: "ibm-q",
		},

		Backends: []DeviceConfig{
			{Name: "emulator_qasm", Hub: "ibm-q", NumQubits: 32, Simulator: true, Operational: true, BasisGates: []string{"id", "rz", "sx", "x", "cx", "h", "z", "swap"}},
			{Name: "emulator_lima", Hub: "ibm-q", NumQubits: 5, Operational: true, PendingJobs: 7, BasisGates: defaultBasis, ReadoutError: 0.02},
			{Name: "emulator_belem", Hub: "ibm-q", NumQubits: 5, Operational: true, PendingJobs: 3, BasisGates: defaultBasis, ReadoutError: 0.03},
			{Name: "emulator_quito", Hub: "ibm-q", NumQubits: 5, Operational: false, BasisGates: defaultBasis, ReadoutError: 0.02},
			{Name: "emulator_manila", Hub: "ibm-q", NumQubits: 5, Operational: true, PendingJobs: 12, BasisGates: defaultBasis, ReadoutError: 0.025},
			{Name: "emulator_armonk", Hub: "ibm-q", NumQubits: 1, Operational: true, BasisGates: defaultBasis, ReadoutError: 0.04},
		},

		Logging: LoggingConfig{
			Level: "info",
			File:  "superdense.log",
		},
	}
}

// LoadConfig loads configuration from a YAML file over the defaults. A missing
// file yields the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return nil, errors.Wrap(err, "failed to read config")
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, errors.Wrap(err, "failed to parse config")
			}
		}
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.Wrap(err, "failed to create config directory")
		}
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "failed to marshal config")
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrap(err, "failed to write config")
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides. The account token
// is read from the environment when the account is loaded.
func (c *Config) applyEnvOverrides() {
	if msg := os.Getenv(messageEnv); msg != "" {
		c.Message = msg
	}
}

// Validate validates the configuration. A malformed message is not an error
// here; callers decide how strict to be.
func (c *Config) Validate() error {
	if c.Shots <= 0 {
		return errors.Errorf("shots must be positive, got %d", c.Shots)
	}
	if l := c.Remote.OptimizationLevel; l < 0 || l > 3 {
		return errors.Wrapf(ErrOptimizationLevel, "remote.optimization_level %d", l)
	}
	if _, err := c.Remote.TimeoutDuration(); err != nil {
		return err
	}
	if _, err := c.Remote.QueueDelayDuration(); err != nil {
		return err
	}
	for _, d := range c.Backends {
		if d.Name == "" {
			return errors.New("backend without a name")
		}
		if d.ReadoutError < 0 || d.ReadoutError > 1 {
			return errors.Errorf("backend %s: readout_error %g out of [0, 1]", d.Name, d.ReadoutError)
		}
	}
	return nil
}

// TimeoutDuration parses remote.timeout. Zero means no timeout.
func (r RemoteConfig) TimeoutDuration() (time.Duration, error) {
	return parseDuration("remote.timeout", r.Timeout)
}

// QueueDelayDuration parses remote.queue_delay.
func (r RemoteConfig) QueueDelayDuration() (time.Duration, error) {
	return parseDuration("remote.queue_delay", r.QueueDelay)
}

func parseDuration(key, s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid %s", key)
	}
	if d < 0 {
		return 0, errors.Errorf("%s must not be negative", key)
	}
	return d, nil
}
