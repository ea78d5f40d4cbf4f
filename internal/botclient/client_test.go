package botclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"bazachat/internal/models"
)

func TestNewClientRequiresBaseURL(t *testing.T) {
	_, err := NewClient("", time.Second)
	require.Error(t, err)
}

func TestSendDecodesReply(t *testing.T) {
	var got models.ChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/chat", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(models.ChatResponse{
			Reply:        "You have 3 bundles",
			QuickReplies: []string{"Balance", "Help"},
		})
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL, time.Second)
	require.NoError(t, err)

	resp, err := client.Send(context.Background(), models.ChatRequest{
		RecipientID:  "+250700000000",
		Message:      "Show bundles",
		LanguageHint: "en",
	})
	require.NoError(t, err)
	require.Equal(t, "You have 3 bundles", resp.Reply)
	require.Equal(t, []string{"Balance", "Help"}, resp.QuickReplies)

	require.Equal(t, "+250700000000", got.RecipientID)
	require.Equal(t, "Show bundles", got.Message)
	require.Equal(t, "en", got.LanguageHint)
}

func TestSendReportsServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL, time.Second)
	require.NoError(t, err)

	_, err = client.Send(context.Background(), models.ChatRequest{RecipientID: "r", Message: "hi"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "500")
}
