package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/trendwatch-io/trendwatch/internal/output/render"
)

const ntfyMaxBytes = 4 * 1024

// Ntfy publishes messages to an ntfy topic.
type Ntfy struct {
	serverURL string
	topic     string
	token     string
	client    *http.Client
}

// NewNtfy builds the channel, nil when no topic is configured. An
// empty server falls back to the public instance.
func NewNtfy(serverURL, topic, token string, client *http.Client) *Ntfy {
	if topic == "" {
		return nil
	}

	if serverURL == "" {
		serverURL = "https://ntfy.sh"
	}

	return &Ntfy{
		serverURL: strings.TrimRight(serverURL, "/"),
		topic:     topic,
		token:     token,
		client:    client,
	}
}

func (n *Ntfy) Name() string      { return "ntfy" }
func (n *Ntfy) Kind() render.Kind { return render.KindNtfy }
func (n *Ntfy) MaxBytes() int     { return ntfyMaxBytes }

func (n *Ntfy) Send(ctx context.Context, title, body string) error {
	url := n.serverURL + "/" + n.topic

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("Title", title)
	req.Header.Set("Priority", "default")
	req.Header.Set("Tags", "newspaper")
	req.Header.Set("Markdown", "yes")

	if n.token != "" {
		req.Header.Set("Authorization", "Bearer "+n.token)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("ntfy publish: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

		return fmt.Errorf("ntfy status %d: %s", resp.StatusCode, data)
	}

	return nil
}
