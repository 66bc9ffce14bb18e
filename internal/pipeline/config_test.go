package pipeline

import (
	"os"
	"testing"

	"github.com/vblagoje/pr-auto/internal/config"
)

func TestMain(m *testing.M) {
	// bind the environment so LoadConfig sees t.Setenv values
	config.Init(nil)
	os.Exit(m.Run())
}

func validConfig() Config {
	return Config{
		GitHubToken:  "gh-token",
		OpenAIAPIKey: "oa-key",
		Repository:   "acme/widgets",
		BaseRef:      "main",
		HeadRef:      "feature-x",
	}
}

func TestValidateOK(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateMissingInputs(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"github token", func(c *Config) { c.GitHubToken = "" }},
		{"openai key", func(c *Config) { c.OpenAIAPIKey = "" }},
		{"repository", func(c *Config) { c.Repository = "" }},
		{"base ref", func(c *Config) { c.BaseRef = "" }},
		{"head ref", func(c *Config) { c.HeadRef = "" }},
		{"malformed repository", func(c *Config) { c.Repository = "just-a-name" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestSplitRepository(t *testing.T) {
	cases := []struct {
		in        string
		owner     string
		name      string
		expectErr bool
	}{
		{"acme/widgets", "acme", "widgets", false},
		{"https://github.com/acme/widgets", "acme", "widgets", false},
		{"github.com/acme/widgets", "acme", "widgets", false},
		{"widgets", "", "", true},
		{"/widgets", "", "", true},
		{"acme/", "", "", true},
	}
	for _, tc := range cases {
		owner, name, err := SplitRepository(tc.in)
		if tc.expectErr {
			if err == nil {
				t.Fatalf("SplitRepository(%q): expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("SplitRepository(%q): unexpected error %v", tc.in, err)
		}
		if owner != tc.owner || name != tc.name {
			t.Fatalf("SplitRepository(%q) = %q/%q, want %q/%q", tc.in, owner, name, tc.owner, tc.name)
		}
	}
}

func TestLoadConfigArgsOverride(t *testing.T) {
	t.Setenv("GITHUB_REPOSITORY", "env/repo")
	t.Setenv("BASE_REF", "env-base")
	t.Setenv("HEAD_REF", "env-head")

	cfg := LoadConfig([]string{"cli/repo", "cli-base", "cli-head"})
	if cfg.Repository != "cli/repo" || cfg.BaseRef != "cli-base" || cfg.HeadRef != "cli-head" {
		t.Fatalf("positional arguments must override environment: %+v", cfg)
	}
}

func TestLoadConfigBotNameFallback(t *testing.T) {
	t.Setenv("AUTO_PR_WRITER_BOT_NAME", "")
	cfg := LoadConfig(nil)
	if cfg.BotName != DefaultBotName {
		t.Fatalf("blank bot name must fall back to default, got %q", cfg.BotName)
	}
}
