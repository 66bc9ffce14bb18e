package compose

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/google/go-github/v66/github"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/vblagoje/pr-auto/internal/logging"
)

// maxGeneratedTokens bounds the completion; empirically enough for a full
// PR description.
const maxGeneratedTokens = 2560

// Message is one role-tagged unit of conversation plus generation metadata.
// The composer returns the model's first reply as a Message owned by the
// caller.
type Message struct {
	Role    llms.ChatMessageType
	Content string
	Meta    map[string]any
}

// Composer turns a branch comparison into a prompt and asks a chat model
// for the PR text.
type Composer struct {
	model            llms.Model
	modelName        string
	maxContextTokens int
	log              logging.Logger
}

func NewComposer(model llms.Model, modelName string, maxContextTokens int, log logging.Logger) *Composer {
	return &Composer{
		model:            model,
		modelName:        modelName,
		maxContextTokens: maxContextTokens,
		log:              log.WithName("compose"),
	}
}

// NewOpenAIModel builds the production chat-completion client.
func NewOpenAIModel(apiKey, model, orgID string) (llms.Model, error) {
	opts := []openai.Option{openai.WithToken(apiKey), openai.WithModel(model)}
	if orgID != "" {
		// lets the API key owner track usage and costs per organization
		opts = append(opts, openai.WithOrganization(orgID))
	}
	return openai.New(opts...)
}

// Compose reduces the comparison to its changed files, assembles the
// message sequence and invokes the model. The first reply comes back
// verbatim with its generation metadata; content is never post-processed.
func (c *Composer) Compose(ctx context.Context, cmp *github.CommitsComparison, systemPrompt, customInstruction string) (Message, error) {
	diff, err := c.changedFilesPayload(cmp)
	if err != nil {
		return Message{}, err
	}

	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, diff),
	}
	if customInstruction != "" {
		messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman, customInstruction))
	}

	c.log.Info("requesting completion", "model", c.modelName, "messages", len(messages),
		"prompt_tokens_estimate", EstimateTokens(diff))
	resp, err := c.model.GenerateContent(ctx, messages, llms.WithMaxTokens(maxGeneratedTokens))
	if err != nil {
		return Message{}, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Message{}, fmt.Errorf("chat completion returned no choices")
	}

	choice := resp.Choices[0]
	meta := map[string]any{
		"model":         c.modelName,
		"finish_reason": choice.StopReason,
	}
	for k, v := range choice.GenerationInfo {
		meta[k] = v
	}
	return Message{Role: llms.ChatMessageTypeAI, Content: choice.Content, Meta: meta}, nil
}

// changedFilesPayload keeps only the files portion of the comparison.
// Commit lists, stats and URLs only waste tokens and context window. When
// the serialized files still exceed the context budget, the largest
// patches are dropped until the payload fits; file names and per-file
// stats always survive.
func (c *Composer) changedFilesPayload(cmp *github.CommitsComparison) (string, error) {
	files := cmp.Files
	payload, err := json.Marshal(files)
	if err != nil {
		return "", fmt.Errorf("serialize changed files: %w", err)
	}
	if c.maxContextTokens <= 0 || EstimateTokens(string(payload)) <= c.maxContextTokens {
		return string(payload), nil
	}

	order := make([]int, len(files))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		return len(files[order[a]].GetPatch()) > len(files[order[b]].GetPatch())
	})

	dropped := 0
	for _, idx := range order {
		if files[idx].Patch == nil {
			continue
		}
		files[idx].Patch = nil
		dropped++
		if payload, err = json.Marshal(files); err != nil {
			return "", fmt.Errorf("serialize changed files: %w", err)
		}
		if EstimateTokens(string(payload)) <= c.maxContextTokens {
			break
		}
	}
	c.log.Info("dropped oversized patches to fit context budget",
		"files", len(files), "patches_dropped", dropped, "budget_tokens", c.maxContextTokens)
	return string(payload), nil
}
