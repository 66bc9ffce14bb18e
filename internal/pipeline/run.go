package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/tmc/langchaingo/llms"

	"github.com/vblagoje/pr-auto/internal/ciout"
	"github.com/vblagoje/pr-auto/internal/compare"
	"github.com/vblagoje/pr-auto/internal/compose"
	"github.com/vblagoje/pr-auto/internal/logging"
	"github.com/vblagoje/pr-auto/internal/openapi"
	"github.com/vblagoje/pr-auto/internal/resource"
	"github.com/vblagoje/pr-auto/internal/trigger"
)

// ErrSkip reports an explicit user skip directive; callers exit zero.
var ErrSkip = errors.New("skip requested by user instruction")

// Pipeline runs the loader -> compare -> compose sequence once. Stages
// execute strictly in order, each completing before the next starts; the
// first failure aborts the run.
type Pipeline struct {
	cfg Config
	log logging.Logger

	loader      *resource.Loader
	out         *ciout.Writer
	stdout      io.Writer
	newComparer func(spec *openapi.Spec) compare.Service
	newModel    func() (llms.Model, error)
}

// New wires the production pipeline for the given configuration.
func New(cfg Config, log logging.Logger) *Pipeline {
	p := &Pipeline{
		cfg:    cfg,
		log:    log.WithName("pipeline"),
		loader: resource.NewLoader(nil, log),
		out:    ciout.NewWriter(cfg.OutputPath, log),
		stdout: os.Stdout,
	}
	p.newComparer = func(spec *openapi.Spec) compare.Service {
		connector := openapi.NewConnector(openapi.Credentials{spec.Title(): cfg.GitHubToken}, log)
		return compare.NewService(spec, connector, log)
	}
	p.newModel = func() (llms.Model, error) {
		return compose.NewOpenAIModel(cfg.OpenAIAPIKey, cfg.Model, cfg.OpenAIOrgID)
	}
	return p
}

// Run executes one generation. Returns ErrSkip when the trigger text asks
// for a skip; any other error is fatal to the run.
func (p *Pipeline) Run(ctx context.Context) error {
	var instruction string
	if p.cfg.TriggerText != "" {
		instruction = trigger.ExtractCustomInstruction(p.cfg.BotName, p.cfg.TriggerText)
	}
	if instruction != "" && trigger.ContainsSkipInstruction(instruction) {
		p.log.Info("user instruction contains the skip keyword")
		return ErrSkip
	}

	specText, err := p.loader.Load(ctx, p.cfg.SpecLocations)
	if err != nil {
		return fmt.Errorf("load compare API spec: %w", err)
	}
	spec, err := openapi.ParseSpec([]byte(specText))
	if err != nil {
		return err
	}

	systemPrompt := p.cfg.SystemPromptOverride
	if systemPrompt == "" {
		if systemPrompt, err = p.loader.Load(ctx, p.cfg.PromptLocations); err != nil {
			return fmt.Errorf("load system prompt: %w", err)
		}
	}

	owner, repo, err := SplitRepository(p.cfg.Repository)
	if err != nil {
		return err
	}

	cmp, err := p.newComparer(spec).Compare(ctx, owner, repo, p.cfg.BaseRef, p.cfg.HeadRef)
	if err != nil {
		return err
	}

	model, err := p.newModel()
	if err != nil {
		return fmt.Errorf("init chat model: %w", err)
	}
	composer := compose.NewComposer(model, p.cfg.Model, p.cfg.MaxContextTokens, p.log)
	reply, err := composer.Compose(ctx, cmp, systemPrompt, instruction)
	if err != nil {
		return err
	}

	text := reply.Content
	if p.cfg.Attribution != "" {
		text += "\n\n" + p.cfg.Attribution
	}
	stats := formatMeta(reply.Meta)

	fmt.Fprintf(p.stdout, "%s\n\n%s\n", text, stats)

	if err := p.out.Write("generated_pr_text", text); err != nil {
		return err
	}
	return p.out.Write("generated_pr_text_stats", stats)
}

func formatMeta(meta map[string]any) string {
	keys := make([]string, 0, len(meta))
	for k := range meta {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, meta[k]))
	}
	return strings.Join(parts, " ")
}
