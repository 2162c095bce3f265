package notify

import (
	"context"
	"net/http"

	"github.com/trendwatch-io/trendwatch/internal/output/render"
)

// WeWork caps markdown messages at 4K bytes, the smallest budget of
// the webhook channels.
const weworkMaxBytes = 4 * 1024

// WeWork delivers markdown messages to an enterprise WeChat bot
// webhook.
type WeWork struct {
	webhookURL string
	client     *http.Client
}

// NewWeWork builds the channel, nil when no webhook is configured.
func NewWeWork(webhookURL string, client *http.Client) *WeWork {
	if webhookURL == "" {
		return nil
	}

	return &WeWork{webhookURL: webhookURL, client: client}
}

func (w *WeWork) Name() string      { return "wework" }
func (w *WeWork) Kind() render.Kind { return render.KindWeWork }
func (w *WeWork) MaxBytes() int     { return weworkMaxBytes }

func (w *WeWork) Send(ctx context.Context, title, body string) error {
	payload := map[string]any{
		"msgtype": "markdown",
		"markdown": map[string]string{
			"content": body,
		},
	}

	return postJSON(ctx, w.client, w.webhookURL, payload)
}
