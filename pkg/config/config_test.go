package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestLoad_Defaults(t *testing.T) {
	s, err := Load(envMap(map[string]string{"GITHUB_TOKEN": "tok"}), "")
	if err != nil {
		t.Fatal(err)
	}
	if s.Owner != DefaultOwner || s.Repo != DefaultRepo || s.DefaultWorkflow != DefaultWorkflow || s.DefaultRef != DefaultRef {
		t.Fatalf("defaults not applied: %+v", s)
	}
	if s.BaseURL != DefaultBaseURL || s.Timeout != DefaultTimeout {
		t.Fatalf("base/timeout: %s %s", s.BaseURL, s.Timeout)
	}
	if err := s.Validate(); err != nil {
		t.Fatal(err)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	s, err := Load(envMap(map[string]string{
		"GITHUB_TOKEN":       "tok",
		"GITHUB_OWNER":       "octo",
		"GITHUB_REPO":        "hello",
		"GITHUB_WORKFLOW":    "ci.yml",
		"GITHUB_REF":         "develop",
		"GITHUB_API_URL":     "https://ghe.example.com/api/v3/",
		"MCP_CI_TIMEOUT":     "5s",
		"MCP_CI_STRICT_ARGS": "true",
		"MCP_CI_AUDIT_DSN":   "sqlite:file:audit.db",
	}), "")
	if err != nil {
		t.Fatal(err)
	}
	if s.Owner != "octo" || s.Repo != "hello" || s.DefaultWorkflow != "ci.yml" || s.DefaultRef != "develop" {
		t.Fatalf("env not applied: %+v", s)
	}
	if s.BaseURL != "https://ghe.example.com/api/v3" {
		t.Fatalf("trailing slash not trimmed: %s", s.BaseURL)
	}
	if s.Timeout != 5*time.Second || !s.StrictArgs || s.AuditDSN == "" {
		t.Fatalf("unexpected: %+v", s)
	}
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mcp-ci.yaml")
	body := "token: file-token\nowner: from-file\nrepo: repo-file\ntimeout: 45s\ntrace: true\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	s, err := Load(envMap(map[string]string{"GITHUB_OWNER": "from-env"}), path)
	if err != nil {
		t.Fatal(err)
	}
	if s.Token != "file-token" || s.Repo != "repo-file" || !s.Trace {
		t.Fatalf("file values missing: %+v", s)
	}
	if s.Owner != "from-env" {
		t.Fatalf("env should win over file, got %s", s.Owner)
	}
	if s.Timeout != 45*time.Second {
		t.Fatalf("timeout=%s", s.Timeout)
	}
}

func TestLoad_Errors(t *testing.T) {
	if _, err := Load(envMap(map[string]string{"MCP_CI_TIMEOUT": "soon"}), ""); err == nil {
		t.Fatal("expected duration error")
	}
	if _, err := Load(envMap(map[string]string{"MCP_CI_STRICT_ARGS": "maybe"}), ""); err == nil {
		t.Fatal("expected bool error")
	}
	if _, err := Load(envMap(nil), filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected missing file error")
	}
}

func TestValidate_MissingToken(t *testing.T) {
	s, err := Load(envMap(nil), "")
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Validate(); !errors.Is(err, ErrMissingToken) {
		t.Fatalf("err=%v", err)
	}
}

func TestSettingsStringHidesToken(t *testing.T) {
	s := Settings{Token: "ghp_secret", Owner: "o", Repo: "r"}
	if strings.Contains(s.String(), "ghp_secret") {
		t.Fatalf("token leaked: %s", s.String())
	}
}
