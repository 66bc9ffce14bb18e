package compare

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/go-github/v66/github"
	"github.com/tmc/langchaingo/llms"

	"github.com/vblagoje/pr-auto/internal/logging"
	"github.com/vblagoje/pr-auto/internal/openapi"
)

// operation name fixed by the shipped compare API document
const compareOperationID = "compare_branches"

// Service compares two refs of a repository and returns the comparison as
// reported by the version-control host.
type Service interface {
	Compare(ctx context.Context, owner, repo, base, head string) (*github.CommitsComparison, error)
}

// Invoker executes the function calls carried by a synthetic assistant
// message against an OpenAPI-described service. Production implementation
// is openapi.Connector.
type Invoker interface {
	Invoke(ctx context.Context, spec *openapi.Spec, msg llms.MessageContent) ([]llms.MessageContent, error)
}

type service struct {
	spec    *openapi.Spec
	invoker Invoker
	log     logging.Logger
}

func NewService(spec *openapi.Spec, invoker Invoker, log logging.Logger) Service {
	return &service{spec: spec, invoker: invoker, log: log.WithName("compare")}
}

type compareArgs struct {
	Basehead string `json:"basehead"`
	Owner    string `json:"owner"`
	Repo     string `json:"repo"`
}

// NewInvocation builds the synthetic assistant message carrying the single
// compare_branches function call for the given refs.
func NewInvocation(owner, repo, base, head string) (llms.MessageContent, error) {
	args, err := json.Marshal(compareArgs{
		Basehead: fmt.Sprintf("%s...%s", base, head),
		Owner:    owner,
		Repo:     repo,
	})
	if err != nil {
		return llms.MessageContent{}, fmt.Errorf("serialize compare arguments: %w", err)
	}
	call := llms.ToolCall{
		ID:   "compare-branches-call",
		Type: "function",
		FunctionCall: &llms.FunctionCall{
			Name:      compareOperationID,
			Arguments: string(args),
		},
	}
	return llms.MessageContent{
		Role:  llms.ChatMessageTypeAI,
		Parts: []llms.ContentPart{call},
	}, nil
}

func (s *service) Compare(ctx context.Context, owner, repo, base, head string) (*github.CommitsComparison, error) {
	msg, err := NewInvocation(owner, repo, base, head)
	if err != nil {
		return nil, err
	}

	s.log.Info("comparing refs", "owner", owner, "repo", repo, "range", fmt.Sprintf("%s...%s", base, head))
	replies, err := s.invoker.Invoke(ctx, s.spec, msg)
	if err != nil {
		return nil, fmt.Errorf("compare %s...%s: %w", base, head, err)
	}
	if len(replies) != 1 {
		return nil, fmt.Errorf("expected one service reply, got %d", len(replies))
	}

	var cmp github.CommitsComparison
	if err := json.Unmarshal([]byte(messageText(replies[0])), &cmp); err != nil {
		return nil, fmt.Errorf("decode compare response: %w", err)
	}
	s.log.Debug("comparison fetched", "files", len(cmp.Files), "total_commits", cmp.GetTotalCommits())
	return &cmp, nil
}

func messageText(msg llms.MessageContent) string {
	var b strings.Builder
	for _, part := range msg.Parts {
		if text, ok := part.(llms.TextContent); ok {
			b.WriteString(text.Text)
		}
	}
	return b.String()
}
