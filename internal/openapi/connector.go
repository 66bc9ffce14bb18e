package openapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tmc/langchaingo/llms"
	"golang.org/x/oauth2"

	"github.com/vblagoje/pr-auto/internal/logging"
)

// Credentials maps a service name (the spec's info.title) to its token.
type Credentials map[string]string

// Connector performs live HTTP calls for operations described by an OpenAPI
// document. It understands synthetic function-call messages as well as the
// typed InvokeOperation form.
type Connector struct {
	creds     Credentials
	log       logging.Logger
	newClient func(bearerToken string) *http.Client
}

func NewConnector(creds Credentials, log logging.Logger) *Connector {
	return &Connector{creds: creds, log: log.WithName("openapi"), newClient: newHTTPClient}
}

func newHTTPClient(bearerToken string) *http.Client {
	if bearerToken == "" {
		return &http.Client{Timeout: 30 * time.Second}
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: bearerToken})
	client := oauth2.NewClient(context.Background(), ts)
	client.Timeout = 30 * time.Second
	return client
}

// Invoke executes the function calls carried by one synthetic assistant
// message and returns one reply message per call, each holding the raw JSON
// response body as text.
func (c *Connector) Invoke(ctx context.Context, spec *Spec, msg llms.MessageContent) ([]llms.MessageContent, error) {
	calls := toolCalls(msg)
	if len(calls) == 0 {
		return nil, fmt.Errorf("message carries no function calls")
	}

	replies := make([]llms.MessageContent, 0, len(calls))
	for _, call := range calls {
		if call.FunctionCall == nil {
			return nil, fmt.Errorf("tool call %q has no function payload", call.ID)
		}
		result, err := c.InvokeOperation(ctx, spec, call.FunctionCall.Name, call.FunctionCall.Arguments)
		if err != nil {
			return nil, err
		}
		replies = append(replies, llms.MessageContent{
			Role:  llms.ChatMessageTypeTool,
			Parts: []llms.ContentPart{llms.TextContent{Text: string(result)}},
		})
	}
	return replies, nil
}

// InvokeOperation resolves operationID against the spec and performs the
// call. Auth placement follows the spec's security schemes; bearer schemes
// ride on an oauth2 transport, header apiKey schemes are set directly.
func (c *Connector) InvokeOperation(ctx context.Context, spec *Spec, operationID string, argsJSON string) (json.RawMessage, error) {
	op, err := ResolveOperation(spec, operationID)
	if err != nil {
		return nil, err
	}

	var args map[string]any
	if err := json.Unmarshal([]byte(argsJSON), &args); err != nil {
		return nil, fmt.Errorf("arguments of operation %q are not valid JSON: %w", operationID, err)
	}

	requestURL, err := op.BuildRequestURL(spec.ServerURL(), args)
	if err != nil {
		return nil, err
	}

	client := c.newClient("")
	var authName, authValue string
	if token := c.creds[spec.Title()]; token != "" {
		name, value, ok := spec.SecurityHeader(token)
		switch {
		case ok && name == "Authorization":
			client = c.newClient(token)
		case ok:
			authName, authValue = name, value
		default:
			// no scheme declared, default to bearer
			client = c.newClient(token)
		}
	}

	req, err := http.NewRequestWithContext(ctx, op.Method, requestURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if authName != "" {
		req.Header.Set(authName, authValue)
	}

	c.log.Debug("invoking operation", "operation", operationID, "method", op.Method, "url", requestURL)
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("invoke operation %q: %w", operationID, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response of operation %q: %w", operationID, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("operation %q returned %s: %s", operationID, resp.Status, snippet(body))
	}
	return json.RawMessage(body), nil
}

func toolCalls(msg llms.MessageContent) []llms.ToolCall {
	var calls []llms.ToolCall
	for _, part := range msg.Parts {
		if call, ok := part.(llms.ToolCall); ok {
			calls = append(calls, call)
		}
	}
	return calls
}

func snippet(body []byte) string {
	const max = 200
	if len(body) > max {
		return string(body[:max]) + "..."
	}
	return string(body)
}
