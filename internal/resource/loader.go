package resource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/vblagoje/pr-auto/internal/logging"
)

// ErrNotFound reports that no candidate location yielded content.
var ErrNotFound = errors.New("resource not found")

// Loader resolves text artifacts from an ordered list of candidate
// locations, local paths and HTTP(S) URLs mixed.
type Loader struct {
	client *http.Client
	log    logging.Logger
}

func NewLoader(client *http.Client, log logging.Logger) *Loader {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Loader{client: client, log: log.WithName("loader")}
}

// Load returns the content of the first candidate that resolves. A failing
// candidate is logged and the next one is tried; when every candidate fails
// the error wraps ErrNotFound. The artifact can live in different places
// depending on where the run happens (checkout, docker image, remote), so
// each call re-resolves from scratch.
func (l *Loader) Load(ctx context.Context, locations []string) (string, error) {
	for _, location := range locations {
		content, err := l.loadOne(ctx, location)
		if err != nil {
			l.log.Info("candidate failed, trying next", "location", location, "reason", err.Error())
			continue
		}
		l.log.Debug("resolved artifact", "location", location, "bytes", len(content))
		return content, nil
	}
	return "", fmt.Errorf("%w: tried %s", ErrNotFound, strings.Join(locations, ", "))
}

func (l *Loader) loadOne(ctx context.Context, location string) (string, error) {
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
		if err != nil {
			return "", err
		}
		resp, err := l.client.Do(req)
		if err != nil {
			return "", err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			// any non-200 skips the candidate, no status special-casing
			return "", fmt.Errorf("unexpected status %s", resp.Status)
		}
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return "", err
		}
		return string(body), nil
	}

	data, err := os.ReadFile(location)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
