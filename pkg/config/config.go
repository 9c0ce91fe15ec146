package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"lapse-report/pkg/models"

	"github.com/ilyakaznacheev/cleanenv"
	"gopkg.in/yaml.v3"
)

// Config is read from a YAML file with environment overrides.
// Secrets only come from the environment.
type Config struct {
	DSN string `yaml:"dsn" env:"LAPSE_DSN" env-default:""`

	Log LogConfig `yaml:"log"`

	// Thresholds are the lapse levels, least severe first.
	Thresholds models.ThresholdSet `yaml:"lapse_levels"`

	// AbsenceWindow is the default N for the absent-from-last-N selector.
	AbsenceWindow int `yaml:"absence_window" env:"LAPSE_ABSENCE_WINDOW" env-default:"3"`

	Messaging MessagingConfig `yaml:"messaging"`
}

type LogConfig struct {
	Level  string `yaml:"level" env:"LAPSE_LOG_LEVEL" env-default:"info"`
	Format string `yaml:"format" env:"LAPSE_LOG_FORMAT" env-default:"console"`
}

// MessagingConfig configures the SMS gateway and follow-up wording.
type MessagingConfig struct {
	BaseURL     string        `yaml:"base_url" env:"TWILIO_BASE_URL" env-default:"https://api.twilio.com"`
	AccountSID  string        `yaml:"account_sid" env:"TWILIO_ACCOUNT_SID" env-default:""`
	AuthToken   string        `yaml:"-" env:"TWILIO_AUTH_TOKEN"`
	From        string        `yaml:"from" env:"TWILIO_PHONE_NUMBER" env-default:""`
	Concurrency int           `yaml:"concurrency" env:"LAPSE_SMS_CONCURRENCY" env-default:"5"`
	Timeout     time.Duration `yaml:"timeout" env:"LAPSE_SMS_TIMEOUT" env-default:"15s"`
	RetryCount  int           `yaml:"retry_count" env:"LAPSE_SMS_RETRIES" env-default:"2"`

	PresentTemplate string `yaml:"present_template" env-default:"Hi {{first_name}}, thanks for joining us on {{date}}! We were blessed to have you with us."`
	AbsentTemplate  string `yaml:"absent_template" env-default:"Hi {{first_name}}, we missed you on {{date}}. We hope you have a blessed week and look forward to seeing you soon!"`
}

// Load reads path when it exists, otherwise the environment alone.
// Missing thresholds fall back to the defaults; invalid ones are an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := cleanenv.ReadConfig(path, cfg); err != nil {
				return nil, fmt.Errorf("failed to read %s: %w", path, err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("stat %s: %w", path, err)
		} else if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	} else if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	if len(cfg.Thresholds) == 0 {
		cfg.Thresholds = models.DefaultThresholds()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if err := c.Thresholds.Validate(); err != nil {
		return fmt.Errorf("lapse_levels: %w", err)
	}
	if c.AbsenceWindow < 1 {
		return fmt.Errorf("absence_window must be at least 1, got %d", c.AbsenceWindow)
	}
	if c.Messaging.Concurrency < 1 {
		return fmt.Errorf("messaging.concurrency must be at least 1, got %d", c.Messaging.Concurrency)
	}
	return nil
}

// MessagingEnabled is true when the gateway credentials are all present.
func (c *Config) MessagingEnabled() bool {
	m := c.Messaging
	return m.AccountSID != "" && m.AuthToken != "" && m.From != ""
}

// Dump writes the effective configuration as YAML. Secrets are never written
// and the DSN, which may embed a password, is masked.
func (c *Config) Dump(w io.Writer) error {
	out := *c
	if out.DSN != "" {
		out.DSN = "<redacted>"
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&out); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return enc.Close()
}
