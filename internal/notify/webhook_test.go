package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/kims-booking/pkg/logging"
)

type webhookObservation struct {
	status  string
	seconds float64
}

type fakeObserver struct {
	mu   sync.Mutex
	seen []webhookObservation
}

func (f *fakeObserver) ObserveWebhook(status string, seconds float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen = append(f.seen, webhookObservation{status: status, seconds: seconds})
}

func (f *fakeObserver) statuses() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.seen))
	for i, o := range f.seen {
		out[i] = o.status
	}
	return out
}

func TestWebhookNotifierDelivers(t *testing.T) {
	var got Payload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	obs := &fakeObserver{}
	n := NewWebhookNotifier(WebhookConfig{URL: srv.URL, Timeout: time.Second}, obs, logging.New("error"))
	payload := NewPayload(confirmedRecord(), time.Now(), "91")

	require.NoError(t, n.Notify(context.Background(), payload))
	assert.Equal(t, payload, got)
	assert.Equal(t, []string{"delivered"}, obs.statuses())
}

func TestWebhookNotifierReportsRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	obs := &fakeObserver{}
	n := NewWebhookNotifier(WebhookConfig{URL: srv.URL}, obs, logging.New("error"))

	err := n.Notify(context.Background(), Payload{BookingReference: "ABC"})
	assert.ErrorContains(t, err, "502")
	assert.Equal(t, []string{"rejected"}, obs.statuses())
}

func TestWebhookNotifierNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	obs := &fakeObserver{}
	n := NewWebhookNotifier(WebhookConfig{URL: url, Timeout: 200 * time.Millisecond}, obs, logging.New("error"))

	assert.Error(t, n.Notify(context.Background(), Payload{BookingReference: "ABC"}))
	assert.Equal(t, []string{"error"}, obs.statuses())
}

func TestWebhookNotifierDisabled(t *testing.T) {
	n := NewWebhookNotifier(WebhookConfig{URL: "  "}, nil, logging.New("error"))
	assert.False(t, n.Enabled())
	assert.NoError(t, n.Notify(context.Background(), Payload{}))

	var nilNotifier *WebhookNotifier
	assert.NoError(t, nilNotifier.Notify(context.Background(), Payload{}))
}
