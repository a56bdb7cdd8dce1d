package alert

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleNotification() *Notification {
	return &Notification{
		Ticker:    "NVDA",
		Label:     "2024-01-08",
		Score:     8.4,
		Direction: "bullish",
		Source:    "news",
	}
}

func TestNotificationRendering(t *testing.T) {
	n := sampleNotification()
	assert.Equal(t, "NVDA sentiment is bullish", n.Title())
	assert.Contains(t, n.Body(), "8.4")
	assert.Contains(t, n.Body(), "2024-01-08")
}

type stubNotifier struct {
	name string
	err  error
	sent int
}

func (s *stubNotifier) Name() string { return s.name }

func (s *stubNotifier) Send(ctx context.Context, n *Notification) error {
	s.sent++
	return s.err
}

func TestManagerBroadcast(t *testing.T) {
	ok := &stubNotifier{name: "ok"}
	bad := &stubNotifier{name: "bad", err: errors.New("unreachable")}

	m := NewManager([]Notifier{ok, bad})
	require.True(t, m.HasNotifiers())

	err := m.Broadcast(context.Background(), sampleNotification())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad")
	assert.Equal(t, 1, ok.sent)
	assert.Equal(t, 1, bad.sent)
}

func TestManagerEmpty(t *testing.T) {
	m := NewManager(nil)
	assert.False(t, m.HasNotifiers())
	assert.NoError(t, m.Broadcast(context.Background(), sampleNotification()))
}

func TestWebhookSignsPayload(t *testing.T) {
	secret := "s3cret"
	var gotSig string
	var gotBody []byte

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSig = r.Header.Get("X-Tickersent-Signature")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	wh := NewWebhook(ts.URL, secret)
	require.NoError(t, wh.Send(context.Background(), sampleNotification()))

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(gotBody)
	want := "sha256=" + hex.EncodeToString(mac.Sum(nil))
	assert.Equal(t, want, gotSig)
	assert.Contains(t, string(gotBody), `"ticker":"NVDA"`)
}

func TestWebhookRejectsBadStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer ts.Close()

	wh := NewWebhook(ts.URL, "")
	err := wh.Send(context.Background(), sampleNotification())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestSlackPayloadShape(t *testing.T) {
	var body []byte
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	s := NewSlack(ts.URL)
	require.NoError(t, s.Send(context.Background(), sampleNotification()))
	assert.Contains(t, string(body), "blocks")
	assert.Contains(t, string(body), "NVDA")
}
