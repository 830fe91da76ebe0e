// Package config handles loading and validation of reconciler settings.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// ErrInvalid is returned (wrapped) when settings fail validation.
var ErrInvalid = errors.New("invalid settings")

// Settings holds every tunable of the reconciler. Defaults come from the
// embedded defaults.yaml.
type Settings struct {
	Gateway   GatewaySettings   `yaml:"gateway"`
	Target    TargetSettings    `yaml:"target"`
	Readiness ReadinessSettings `yaml:"readiness"`
	Retry     RetrySettings     `yaml:"retry"`
	Teardown  TeardownSettings  `yaml:"teardown"`
	Callback  CallbackSettings  `yaml:"callback"`
}

// GatewaySettings configures gateway creation and URL derivation.
type GatewaySettings struct {
	Description    string `yaml:"description"`
	ProtocolType   string `yaml:"protocolType"`
	AuthorizerType string `yaml:"authorizerType"`
	// URLTemplate derives the gateway URL when the API omits it.
	// Placeholders: {id}, {region}.
	URLTemplate string `yaml:"urlTemplate"`
}

// TargetSettings fixes the shape of the single gateway target.
type TargetSettings struct {
	Name                   string `yaml:"name"`
	Description            string `yaml:"description"`
	CredentialProviderType string `yaml:"credentialProviderType"`
}

// ReadinessSettings controls gateway readiness polling.
type ReadinessSettings struct {
	PollInterval time.Duration `yaml:"pollInterval"`
	MaxWait      time.Duration `yaml:"maxWait"`
}

// RetrySettings controls target create/update retries. The wait before
// attempt n+1 is BaseDelay * 2^n, capped at MaxDelay.
type RetrySettings struct {
	MaxAttempts int           `yaml:"maxAttempts"`
	BaseDelay   time.Duration `yaml:"baseDelay"`
	MaxDelay    time.Duration `yaml:"maxDelay"`
}

// TeardownSettings controls best-effort deletion.
type TeardownSettings struct {
	TargetDeletePause time.Duration `yaml:"targetDeletePause"`
	BreakerThreshold  int           `yaml:"breakerThreshold"`
}

// CallbackSettings controls delivery of the CloudFormation response.
type CallbackSettings struct {
	Timeout time.Duration `yaml:"timeout"`
}

// Default returns the embedded default settings.
func Default() Settings {
	var s Settings
	if err := yaml.Unmarshal(defaultsYAML, &s); err != nil {
		panic("config: embedded defaults are invalid: " + err.Error())
	}
	return s
}

// Load builds settings from the embedded defaults, overlays the YAML file at
// path (if non-empty), then applies environment overrides.
func Load(path string) (Settings, error) {
	s := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Settings{}, fmt.Errorf("reading config: %w", err)
		}
		if err := yaml.Unmarshal(data, &s); err != nil {
			return Settings{}, fmt.Errorf("parsing config: %w", err)
		}
	}

	if err := applyEnv(&s); err != nil {
		return Settings{}, fmt.Errorf("applying env overrides: %w", err)
	}

	if err := s.Validate(); err != nil {
		return Settings{}, fmt.Errorf("validating config: %w", err)
	}
	return s, nil
}

func applyEnv(s *Settings) error {
	if v := os.Getenv("GATEWAY_URL_TEMPLATE"); v != "" {
		s.Gateway.URLTemplate = v
	}
	if err := envDuration("READINESS_POLL_INTERVAL", &s.Readiness.PollInterval); err != nil {
		return err
	}
	if err := envDuration("READINESS_MAX_WAIT", &s.Readiness.MaxWait); err != nil {
		return err
	}
	if v := os.Getenv("TARGET_MAX_ATTEMPTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("TARGET_MAX_ATTEMPTS: %w", err)
		}
		s.Retry.MaxAttempts = n
	}
	return nil
}

func envDuration(key string, dst *time.Duration) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = d
	return nil
}

// Validate checks that every setting is usable.
func (s Settings) Validate() error {
	var problems []string
	if !strings.Contains(s.Gateway.URLTemplate, "{id}") {
		problems = append(problems, "gateway.urlTemplate must contain {id}")
	}
	if s.Gateway.ProtocolType == "" {
		problems = append(problems, "gateway.protocolType is required")
	}
	if s.Gateway.AuthorizerType == "" {
		problems = append(problems, "gateway.authorizerType is required")
	}
	if s.Target.Name == "" {
		problems = append(problems, "target.name is required")
	}
	if s.Target.CredentialProviderType == "" {
		problems = append(problems, "target.credentialProviderType is required")
	}
	if s.Readiness.PollInterval <= 0 {
		problems = append(problems, "readiness.pollInterval must be positive")
	}
	if s.Readiness.MaxWait < s.Readiness.PollInterval {
		problems = append(problems, "readiness.maxWait must be at least readiness.pollInterval")
	}
	if s.Retry.MaxAttempts < 1 {
		problems = append(problems, "retry.maxAttempts must be at least 1")
	}
	if s.Retry.BaseDelay <= 0 {
		problems = append(problems, "retry.baseDelay must be positive")
	}
	if s.Teardown.TargetDeletePause < 0 {
		problems = append(problems, "teardown.targetDeletePause must not be negative")
	}
	if s.Teardown.BreakerThreshold < 1 {
		problems = append(problems, "teardown.breakerThreshold must be at least 1")
	}
	if s.Callback.Timeout <= 0 {
		problems = append(problems, "callback.timeout must be positive")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
	}
	return nil
}
