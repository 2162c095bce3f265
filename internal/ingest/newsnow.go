package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/trendwatch-io/trendwatch/internal/core/feed"
)

const defaultNewsNowBase = "https://newsnow.busiyi.world/api/s"

// NewsNow reads one platform's ranked list from a NewsNow aggregation
// endpoint.
type NewsNow struct {
	id      string
	name    string
	baseURL string
	client  *http.Client
}

// NewNewsNow builds a source for one platform id. An empty baseURL
// uses the public instance.
func NewNewsNow(id, name, baseURL string, client *http.Client) *NewsNow {
	if baseURL == "" {
		baseURL = defaultNewsNowBase
	}

	if name == "" {
		name = id
	}

	return &NewsNow{id: id, name: name, baseURL: baseURL, client: client}
}

func (n *NewsNow) ID() string   { return n.id }
func (n *NewsNow) Name() string { return n.name }

type newsNowResponse struct {
	Status string `json:"status"`
	Items  []struct {
		Title     string `json:"title"`
		URL       string `json:"url"`
		MobileURL string `json:"mobileUrl"`
	} `json:"items"`
}

func (n *NewsNow) Fetch(ctx context.Context) ([]feed.Observation, error) {
	endpoint := fmt.Sprintf("%s?id=%s&latest", n.baseURL, url.QueryEscape(n.id))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", n.id, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: status %d", n.id, resp.StatusCode)
	}

	var parsed newsNowResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4<<20)).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode %s: %w", n.id, err)
	}

	if parsed.Status != "success" && parsed.Status != "cache" {
		return nil, fmt.Errorf("fetch %s: upstream status %q", n.id, parsed.Status)
	}

	items := make([]feed.Observation, 0, len(parsed.Items))

	for i, item := range parsed.Items {
		title := feed.CleanTitle(item.Title)
		if title == "" {
			continue
		}

		items = append(items, feed.Observation{
			Title:     title,
			Ranks:     []int{i + 1},
			URL:       item.URL,
			MobileURL: item.MobileURL,
		})
	}

	return items, nil
}
