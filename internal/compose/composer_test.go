package compose

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/go-logr/logr"
	"github.com/google/go-github/v66/github"
	"github.com/tmc/langchaingo/llms"

	"github.com/vblagoje/pr-auto/internal/logging"
)

type fakeModel struct {
	gotMessages []llms.MessageContent
	resp        *llms.ContentResponse
	err         error
}

func (f *fakeModel) GenerateContent(_ context.Context, messages []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	f.gotMessages = messages
	return f.resp, f.err
}

func (f *fakeModel) Call(_ context.Context, _ string, _ ...llms.CallOption) (string, error) {
	return "", fmt.Errorf("not implemented")
}

func stubComparison() *github.CommitsComparison {
	return &github.CommitsComparison{
		TotalCommits: github.Int(5),
		Files: []*github.CommitFile{
			{Filename: github.String("a.go"), Status: github.String("modified"), Patch: github.String("@@ -1 +1 @@")},
			{Filename: github.String("b.go"), Status: github.String("added"), Patch: github.String("@@ -0 +1 @@")},
		},
	}
}

func stubResponse(content string) *llms.ContentResponse {
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{
		Content:        content,
		StopReason:     "stop",
		GenerationInfo: map[string]any{"CompletionTokens": 42},
	}}}
}

func newTestComposer(model llms.Model, budget int) *Composer {
	return NewComposer(model, "test-model", budget, logging.New(logr.Discard()))
}

func messageString(msg llms.MessageContent) string {
	var b strings.Builder
	for _, part := range msg.Parts {
		if text, ok := part.(llms.TextContent); ok {
			b.WriteString(text.Text)
		}
	}
	return b.String()
}

func TestComposeWithoutCustomInstruction(t *testing.T) {
	model := &fakeModel{resp: stubResponse("## Summary")}
	composer := newTestComposer(model, 0)

	reply, err := composer.Compose(context.Background(), stubComparison(), "you write PR texts", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(model.gotMessages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(model.gotMessages))
	}
	if model.gotMessages[0].Role != llms.ChatMessageTypeSystem {
		t.Fatalf("first message must be system, got %q", model.gotMessages[0].Role)
	}
	if messageString(model.gotMessages[0]) != "you write PR texts" {
		t.Fatalf("system prompt altered: %q", messageString(model.gotMessages[0]))
	}
	if model.gotMessages[1].Role != llms.ChatMessageTypeHuman {
		t.Fatalf("second message must be user, got %q", model.gotMessages[1].Role)
	}
	if reply.Content != "## Summary" {
		t.Fatalf("reply content altered: %q", reply.Content)
	}
	if reply.Role != llms.ChatMessageTypeAI {
		t.Fatalf("unexpected reply role %q", reply.Role)
	}
}

func TestComposeWithCustomInstruction(t *testing.T) {
	model := &fakeModel{resp: stubResponse("text")}
	composer := newTestComposer(model, 0)

	if _, err := composer.Compose(context.Background(), stubComparison(), "sys", "please be concise"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(model.gotMessages) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(model.gotMessages))
	}
	last := model.gotMessages[2]
	if last.Role != llms.ChatMessageTypeHuman || messageString(last) != "please be concise" {
		t.Fatalf("custom instruction not appended as final user message: %q %q", last.Role, messageString(last))
	}
}

func TestComposeDiffMessageHoldsOnlyFiles(t *testing.T) {
	model := &fakeModel{resp: stubResponse("text")}
	composer := newTestComposer(model, 0)

	if _, err := composer.Compose(context.Background(), stubComparison(), "sys", ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	diff := messageString(model.gotMessages[1])
	var files []*github.CommitFile
	if err := json.Unmarshal([]byte(diff), &files); err != nil {
		t.Fatalf("diff message is not a files list: %v", err)
	}
	if len(files) != 2 || files[0].GetFilename() != "a.go" {
		t.Fatalf("unexpected files payload: %s", diff)
	}
	if strings.Contains(diff, "total_commits") {
		t.Fatalf("comparison metadata leaked into the prompt: %s", diff)
	}
}

func TestComposeMetadataPassedThrough(t *testing.T) {
	model := &fakeModel{resp: stubResponse("text")}
	composer := newTestComposer(model, 0)

	reply, err := composer.Compose(context.Background(), stubComparison(), "sys", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply.Meta["model"] != "test-model" {
		t.Fatalf("model name missing from metadata: %v", reply.Meta)
	}
	if reply.Meta["finish_reason"] != "stop" {
		t.Fatalf("finish reason missing from metadata: %v", reply.Meta)
	}
	if reply.Meta["CompletionTokens"] != 42 {
		t.Fatalf("generation info missing from metadata: %v", reply.Meta)
	}
}

func TestComposeModelErrorPropagates(t *testing.T) {
	model := &fakeModel{err: fmt.Errorf("quota exceeded")}
	composer := newTestComposer(model, 0)
	if _, err := composer.Compose(context.Background(), stubComparison(), "sys", ""); err == nil {
		t.Fatal("expected completion error to propagate")
	}
}

func TestComposeEmptyChoices(t *testing.T) {
	model := &fakeModel{resp: &llms.ContentResponse{}}
	composer := newTestComposer(model, 0)
	if _, err := composer.Compose(context.Background(), stubComparison(), "sys", ""); err == nil {
		t.Fatal("expected error for empty choice list")
	}
}

func TestComposeTrimsPatchesToBudget(t *testing.T) {
	oldEstimate := estimateTokensFunc
	estimateTokensFunc = func(text string) int { return len(text) / 10 }
	defer func() { estimateTokensFunc = oldEstimate }()

	big := strings.Repeat("+added line\n", 200)
	cmp := &github.CommitsComparison{Files: []*github.CommitFile{
		{Filename: github.String("big.go"), Patch: github.String(big)},
		{Filename: github.String("small.go"), Patch: github.String("@@ tiny @@")},
	}}

	model := &fakeModel{resp: stubResponse("text")}
	composer := newTestComposer(model, 30)

	if _, err := composer.Compose(context.Background(), cmp, "sys", ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	diff := messageString(model.gotMessages[1])
	if strings.Contains(diff, "+added line") {
		t.Fatalf("oversized patch survived the trim: %s", diff)
	}
	if !strings.Contains(diff, "big.go") {
		t.Fatalf("file name must survive the trim: %s", diff)
	}
}
