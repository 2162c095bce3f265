package notify

import (
	"context"
	"net/http"

	"github.com/trendwatch-io/trendwatch/internal/output/render"
)

const feishuMaxBytes = 28 * 1024

// Feishu delivers interactive cards to a Feishu bot webhook.
type Feishu struct {
	webhookURL string
	client     *http.Client
}

// NewFeishu builds the channel, nil when no webhook is configured.
func NewFeishu(webhookURL string, client *http.Client) *Feishu {
	if webhookURL == "" {
		return nil
	}

	return &Feishu{webhookURL: webhookURL, client: client}
}

func (f *Feishu) Name() string      { return "feishu" }
func (f *Feishu) Kind() render.Kind { return render.KindFeishu }
func (f *Feishu) MaxBytes() int     { return feishuMaxBytes }

func (f *Feishu) Send(ctx context.Context, title, body string) error {
	payload := map[string]any{
		"msg_type": "interactive",
		"card": map[string]any{
			"header": map[string]any{
				"title": map[string]any{
					"tag":     "plain_text",
					"content": title,
				},
				"template": "red",
			},
			"elements": []map[string]any{
				{
					"tag":     "markdown",
					"content": body,
				},
			},
		},
	}

	return postJSON(ctx, f.client, f.webhookURL, payload)
}
