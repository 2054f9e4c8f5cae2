package emails

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBrevoClient_NoKeyIsNoop(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))
	defer srv.Close()

	c := &BrevoClient{APIURL: srv.URL}
	require.NoError(t, c.SendWelcome(context.Background(), "a@b.co"))
	assert.False(t, called)
}

func TestBrevoClient_SendNewThread(t *testing.T) {
	var got BrevoSendRequest
	var apiKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiKey = r.Header.Get("api-key")
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := &BrevoClient{APIKey: "k1", APIURL: srv.URL, AppBaseURL: "https://hs.test/"}
	require.NoError(t, c.SendNewThread(context.Background(), "owner@b.co", "Lake <House>", "t-1"))

	assert.Equal(t, "k1", apiKey)
	require.Len(t, got.To, 1)
	assert.Equal(t, "owner@b.co", got.To[0].Email)
	assert.Equal(t, "New message about Lake <House>", got.Subject)
	assert.Contains(t, got.HTMLContent, "Lake &lt;House&gt;")
	assert.Contains(t, got.HTMLContent, "https://hs.test/messages/t-1")
}

func TestBrevoClient_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := &BrevoClient{APIKey: "k1", APIURL: srv.URL}
	assert.Error(t, c.SendWelcome(context.Background(), "a@b.co"))
}
