// Package config builds the immutable Settings value the server runs with.
// Settings are read once at startup from an optional YAML file and the
// process environment; nothing downstream reads the environment again.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults applied when neither the file nor the environment sets a value.
const (
	DefaultOwner    = "<YOUR_USER>"
	DefaultRepo     = "vite-mcp-demo"
	DefaultWorkflow = "build.yml"
	DefaultRef      = "main"
	DefaultBaseURL  = "https://api.github.com"
	DefaultTimeout  = 30 * time.Second
)

// ErrMissingToken is returned by Validate when no GitHub token is configured.
var ErrMissingToken = errors.New("missing GITHUB_TOKEN in environment")

// Settings is the process-wide, read-only configuration.
type Settings struct {
	Token           string
	Owner           string
	Repo            string
	DefaultWorkflow string
	DefaultRef      string
	BaseURL         string
	Timeout         time.Duration
	StrictArgs      bool
	AuditDSN        string
	Trace           bool
}

// String hides the token so Settings can be logged safely.
func (s Settings) String() string {
	token := ""
	if s.Token != "" {
		token = "***"
	}
	return fmt.Sprintf("owner=%s repo=%s workflow=%s ref=%s base_url=%s timeout=%s strict_args=%t audit=%t token=%s",
		s.Owner, s.Repo, s.DefaultWorkflow, s.DefaultRef, s.BaseURL, s.Timeout, s.StrictArgs, s.AuditDSN != "", token)
}

// Validate reports settings the server cannot start with.
func (s Settings) Validate() error {
	if s.Token == "" {
		return ErrMissingToken
	}
	if s.Owner == "" || s.Repo == "" {
		return errors.New("owner and repo must not be empty")
	}
	if !strings.HasPrefix(s.BaseURL, "http://") && !strings.HasPrefix(s.BaseURL, "https://") {
		return fmt.Errorf("base url must be http(s): %q", s.BaseURL)
	}
	if s.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", s.Timeout)
	}
	return nil
}

// Load reads the YAML file at path (if path is non-empty), applies
// environment overrides through getenv, and fills defaults. It does not
// call Validate; callers decide when a missing token is fatal.
func Load(getenv func(string) string, path string) (Settings, error) {
	if getenv == nil {
		getenv = os.Getenv
	}
	var s Settings
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Settings{}, fmt.Errorf("read config %s: %w", path, err)
		}
		var raw fileSettings
		if err := yaml.Unmarshal(b, &raw); err != nil {
			return Settings{}, fmt.Errorf("parse config %s: %w", path, err)
		}
		if s, err = raw.settings(); err != nil {
			return Settings{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	setString(&s.Token, getenv("GITHUB_TOKEN"))
	setString(&s.Owner, getenv("GITHUB_OWNER"))
	setString(&s.Repo, getenv("GITHUB_REPO"))
	setString(&s.DefaultWorkflow, getenv("GITHUB_WORKFLOW"))
	setString(&s.DefaultRef, getenv("GITHUB_REF"))
	setString(&s.BaseURL, getenv("GITHUB_API_URL"))
	setString(&s.AuditDSN, getenv("MCP_CI_AUDIT_DSN"))
	if v := getenv("MCP_CI_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Settings{}, fmt.Errorf("MCP_CI_TIMEOUT: %w", err)
		}
		s.Timeout = d
	}
	if err := setBool(&s.StrictArgs, "MCP_CI_STRICT_ARGS", getenv); err != nil {
		return Settings{}, err
	}
	if err := setBool(&s.Trace, "MCP_CI_TRACE", getenv); err != nil {
		return Settings{}, err
	}

	setDefault(&s.Owner, DefaultOwner)
	setDefault(&s.Repo, DefaultRepo)
	setDefault(&s.DefaultWorkflow, DefaultWorkflow)
	setDefault(&s.DefaultRef, DefaultRef)
	setDefault(&s.BaseURL, DefaultBaseURL)
	s.BaseURL = strings.TrimRight(s.BaseURL, "/")
	if s.Timeout == 0 {
		s.Timeout = DefaultTimeout
	}
	return s, nil
}

// fileSettings mirrors Settings with the timeout kept as text so that
// "45s" style durations work in YAML.
type fileSettings struct {
	Token      string `yaml:"token"`
	Owner      string `yaml:"owner"`
	Repo       string `yaml:"repo"`
	Workflow   string `yaml:"workflow"`
	Ref        string `yaml:"ref"`
	BaseURL    string `yaml:"base_url"`
	Timeout    string `yaml:"timeout"`
	StrictArgs bool   `yaml:"strict_args"`
	AuditDSN   string `yaml:"audit_dsn"`
	Trace      bool   `yaml:"trace"`
}

func (f fileSettings) settings() (Settings, error) {
	s := Settings{
		Token:           f.Token,
		Owner:           f.Owner,
		Repo:            f.Repo,
		DefaultWorkflow: f.Workflow,
		DefaultRef:      f.Ref,
		BaseURL:         f.BaseURL,
		StrictArgs:      f.StrictArgs,
		AuditDSN:        f.AuditDSN,
		Trace:           f.Trace,
	}
	if f.Timeout != "" {
		d, err := time.ParseDuration(f.Timeout)
		if err != nil {
			return Settings{}, fmt.Errorf("timeout: %w", err)
		}
		s.Timeout = d
	}
	return s, nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDefault(dst *string, def string) {
	if *dst == "" {
		*dst = def
	}
}

func setBool(dst *bool, key string, getenv func(string) string) error {
	v := getenv(key)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = b
	return nil
}
