package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// maxErrorBody bounds how much of a failing response is read for the
// error message.
const maxErrorBody = 1 << 10

// webhookResult is the shared shape of bot-webhook responses. Feishu
// answers with code/msg, DingTalk and WeWork with errcode/errmsg.
type webhookResult struct {
	Code    int    `json:"code"`
	Msg     string `json:"msg"`
	ErrCode int    `json:"errcode"`
	ErrMsg  string `json:"errmsg"`
}

func (r webhookResult) err() error {
	if r.Code != 0 {
		return fmt.Errorf("webhook rejected: code %d: %s", r.Code, r.Msg)
	}

	if r.ErrCode != 0 {
		return fmt.Errorf("webhook rejected: errcode %d: %s", r.ErrCode, r.ErrMsg)
	}

	return nil
}

// postJSON sends a JSON payload and checks both the HTTP status and
// the in-band webhook result code.
func postJSON(ctx context.Context, client *http.Client, url string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("webhook status %d: %s", resp.StatusCode, data)
	}

	var result webhookResult
	if err := json.Unmarshal(data, &result); err != nil {
		// Some webhook variants answer with a bare "ok" body.
		return nil
	}

	return result.err()
}
