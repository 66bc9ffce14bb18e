package pipeline

import (
	"fmt"
	"strings"

	vcsurl "github.com/gitsight/go-vcsurl"

	"github.com/vblagoje/pr-auto/internal/config"
)

// DefaultBotName is used when no bot name is configured, or when the
// configured name is blank.
const DefaultBotName = "auto-pr-writer-bot"

// Artifact candidate lists. The run can happen in different environments
// (checkout, docker image, GitHub Actions), so local paths come first with
// remote fallbacks behind them.
var (
	DefaultSpecLocations   = []string{"github_compare_spec.json", "https://bit.ly/github_compare"}
	DefaultPromptLocations = []string{"system_prompt.txt", "https://bit.ly/auto_pr_writer_system_prompt"}
)

// Config carries every input of one run, assembled once at startup and
// passed into the pipeline. Nothing downstream reads the environment.
type Config struct {
	GitHubToken  string
	OpenAIAPIKey string
	OpenAIOrgID  string

	Repository string // owner/repo or a full VCS URL
	BaseRef    string
	HeadRef    string

	BotName              string
	TriggerText          string
	SystemPromptOverride string
	Model                string
	MaxContextTokens     int
	Attribution          string
	OutputPath           string
	LogLevel             string

	SpecLocations   []string
	PromptLocations []string
}

// LoadConfig assembles the run configuration from the bound environment.
// Three positional arguments [repository baseRef headRef] override the
// corresponding environment values.
func LoadConfig(args []string) Config {
	cfg := Config{
		GitHubToken:          config.GitHubToken(),
		OpenAIAPIKey:         config.OpenAIAPIKey(),
		OpenAIOrgID:          config.OpenAIOrgID(),
		Repository:           config.GitHubRepository(),
		BaseRef:              config.BaseRef(),
		HeadRef:              config.HeadRef(),
		BotName:              config.BotName(),
		TriggerText:          config.UserMessage(),
		SystemPromptOverride: config.SystemMessage(),
		Model:                config.GenerationModel(),
		MaxContextTokens:     config.MaxContextTokens(),
		Attribution:          config.Attribution(),
		OutputPath:           config.GitHubOutput(),
		LogLevel:             config.LogLevel(),
		SpecLocations:        DefaultSpecLocations,
		PromptLocations:      DefaultPromptLocations,
	}
	if len(args) >= 3 {
		cfg.Repository, cfg.BaseRef, cfg.HeadRef = args[0], args[1], args[2]
	}
	if strings.TrimSpace(cfg.BotName) == "" {
		cfg.BotName = DefaultBotName
	}
	return cfg
}

// Validate checks everything that must be present before any network call.
func (c *Config) Validate() error {
	if c.GitHubToken == "" {
		return fmt.Errorf("please provide GITHUB_TOKEN as environment variable")
	}
	if c.OpenAIAPIKey == "" {
		return fmt.Errorf("please set OPENAI_API_KEY environment variable to your OpenAI API key")
	}
	if c.Repository == "" || c.BaseRef == "" || c.HeadRef == "" {
		return fmt.Errorf("please provide GITHUB_REPOSITORY, BASE_REF, HEAD_REF as environment variables or command-line arguments")
	}
	if _, _, err := SplitRepository(c.Repository); err != nil {
		return err
	}
	return nil
}

// SplitRepository accepts "owner/repo" or a full VCS URL and returns the
// owner and repository name.
func SplitRepository(repository string) (owner, name string, err error) {
	if strings.Contains(repository, "://") || strings.Contains(repository, "github.com") {
		info, err := vcsurl.Parse(repository)
		if err != nil {
			return "", "", fmt.Errorf("parse repository %q: %w", repository, err)
		}
		return info.Username, info.Name, nil
	}
	parts := strings.SplitN(repository, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("repository must be in owner/repo form, got %q", repository)
	}
	return parts[0], parts[1], nil
}
