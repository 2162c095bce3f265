package notify

import (
	"context"
	"net/http"

	"github.com/trendwatch-io/trendwatch/internal/output/render"
)

const dingtalkMaxBytes = 18 * 1024

// DingTalk delivers markdown messages to a DingTalk bot webhook.
type DingTalk struct {
	webhookURL string
	client     *http.Client
}

// NewDingTalk builds the channel, nil when no webhook is configured.
func NewDingTalk(webhookURL string, client *http.Client) *DingTalk {
	if webhookURL == "" {
		return nil
	}

	return &DingTalk{webhookURL: webhookURL, client: client}
}

func (d *DingTalk) Name() string      { return "dingtalk" }
func (d *DingTalk) Kind() render.Kind { return render.KindDingTalk }
func (d *DingTalk) MaxBytes() int     { return dingtalkMaxBytes }

func (d *DingTalk) Send(ctx context.Context, title, body string) error {
	payload := map[string]any{
		"msgtype": "markdown",
		"markdown": map[string]string{
			"title": title,
			"text":  body,
		},
	}

	return postJSON(ctx, d.client, d.webhookURL, payload)
}
