package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPostJSONAcceptsZeroCodes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.Write([]byte(`{"code":0,"msg":"success"}`))
	}))
	defer server.Close()

	err := postJSON(context.Background(), server.Client(), server.URL, map[string]string{"k": "v"})
	require.NoError(t, err)
}

func TestPostJSONRejectsInBandError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"errcode":93000,"errmsg":"invalid webhook url"}`))
	}))
	defer server.Close()

	err := postJSON(context.Background(), server.Client(), server.URL, nil)
	require.ErrorContains(t, err, "93000")
}

func TestPostJSONRejectsHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer server.Close()

	err := postJSON(context.Background(), server.Client(), server.URL, nil)
	require.ErrorContains(t, err, "502")
}

func TestPostJSONToleratesNonJSONOKBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	require.NoError(t, postJSON(context.Background(), server.Client(), server.URL, nil))
}

func TestFeishuPayloadShape(t *testing.T) {
	var got map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"code":0}`))
	}))
	defer server.Close()

	ch := NewFeishu(server.URL, server.Client())
	require.NoError(t, ch.Send(context.Background(), "当日汇总", "**body**"))

	require.Equal(t, "interactive", got["msg_type"])

	card := got["card"].(map[string]any)
	elements := card["elements"].([]any)
	first := elements[0].(map[string]any)
	require.Equal(t, "markdown", first["tag"])
	require.Equal(t, "**body**", first["content"])
}

func TestDingTalkPayloadShape(t *testing.T) {
	var got map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"errcode":0,"errmsg":"ok"}`))
	}))
	defer server.Close()

	ch := NewDingTalk(server.URL, server.Client())
	require.NoError(t, ch.Send(context.Background(), "增量监控", "text"))

	require.Equal(t, "markdown", got["msgtype"])

	md := got["markdown"].(map[string]any)
	require.Equal(t, "增量监控", md["title"])
	require.Equal(t, "text", md["text"])
}

func TestWeWorkPayloadShape(t *testing.T) {
	var got map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"errcode":0}`))
	}))
	defer server.Close()

	ch := NewWeWork(server.URL, server.Client())
	require.NoError(t, ch.Send(context.Background(), "当前榜单", "content"))

	require.Equal(t, "markdown", got["msgtype"])
	require.Equal(t, "content", got["markdown"].(map[string]any)["content"])
}

func TestNtfyHeadersAndBody(t *testing.T) {
	var (
		gotTitle string
		gotAuth  string
		gotBody  []byte
	)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotTitle = r.Header.Get("Title")
		gotAuth = r.Header.Get("Authorization")
		gotBody, _ = io.ReadAll(r.Body)
	}))
	defer server.Close()

	ch := NewNtfy(server.URL, "trends", "secret", server.Client())
	require.NoError(t, ch.Send(context.Background(), "当日汇总", "hello"))

	require.Equal(t, "当日汇总", gotTitle)
	require.Equal(t, "Bearer secret", gotAuth)
	require.Equal(t, "hello", string(gotBody))
}

func TestUnconfiguredChannelsAreNil(t *testing.T) {
	require.Nil(t, NewFeishu("", nil))
	require.Nil(t, NewDingTalk("", nil))
	require.Nil(t, NewWeWork("", nil))
	require.Nil(t, NewNtfy("", "", "", nil))
	require.Nil(t, NewEmail(EmailConfig{}))

	tg, err := NewTelegram("", "", nil)
	require.NoError(t, err)
	require.Nil(t, tg)
}
