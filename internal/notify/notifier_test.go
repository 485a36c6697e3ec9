package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocktruck/doc-validator/constants"
	"github.com/rocktruck/doc-validator/internal/entity"
)

func TestWebhookNotifierDeliversDecision(t *testing.T) {
	var received entity.Decision
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(time.Second, nil)
	decision := &entity.Decision{
		DocumentID:  "DOC-1",
		Status:      constants.DecisionApproved,
		ProcessedAt: time.Now().UTC(),
	}
	require.NoError(t, n.Deliver(context.Background(), srv.URL, decision))
	assert.Equal(t, "DOC-1", received.DocumentID)
	assert.Equal(t, constants.DecisionApproved, received.Status)
}

func TestWebhookNotifierReportsNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(time.Second, nil)
	err := n.Deliver(context.Background(), srv.URL, &entity.Decision{DocumentID: "DOC-1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestWebhookNotifierReportsTransportError(t *testing.T) {
	n := NewWebhookNotifier(100*time.Millisecond, nil)
	err := n.Deliver(context.Background(), "http://127.0.0.1:1/unreachable", &entity.Decision{DocumentID: "DOC-1"})
	assert.Error(t, err)
}
