package gmail

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	gmailv1 "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/mikey/invoice-printer/internal/core"
)

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func newTestMailbox(t *testing.T, mux *http.ServeMux) *Mailbox {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	svc, err := gmailv1.NewService(context.Background(),
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	return NewMailboxFromService(svc, Options{MaxResults: 25}, zaptest.NewLogger(t))
}

func TestMailbox_ListMessageIDs(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/gmail/v1/users/me/messages", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "25", r.URL.Query().Get("maxResults"))
		writeJSON(w, map[string]any{
			"messages": []map[string]string{
				{"id": "m1", "threadId": "t1"},
				{"id": "m2", "threadId": "t2"},
			},
			"nextPageToken": "ignored",
		})
	})

	ids, err := newTestMailbox(t, mux).ListMessageIDs(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"m1", "m2"}, ids)
}

func TestMailbox_GetMessage(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/gmail/v1/users/me/messages/m1", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "full", r.URL.Query().Get("format"))
		writeJSON(w, map[string]any{
			"id": "m1",
			"payload": map[string]any{
				"headers": []map[string]string{
					{"name": "Subject", "value": "Faktura 1"},
					{"name": "To", "value": "a@firma.pl"},
					{"name": "To", "value": "b@firma.pl"},
				},
				"parts": []map[string]any{
					{"mimeType": "text/plain", "filename": "", "body": map[string]any{"size": 3}},
					{"mimeType": "application/pdf", "filename": "Faktura_1.pdf", "body": map[string]any{"attachmentId": "ANGjdJ8"}},
				},
			},
		})
	})

	raw, err := newTestMailbox(t, mux).GetMessage(context.Background(), "m1")

	require.NoError(t, err)
	assert.Equal(t, "m1", raw.ID)
	assert.Equal(t, []core.Header{
		{Name: "Subject", Value: "Faktura 1"},
		{Name: "To", Value: "a@firma.pl"},
		{Name: "To", Value: "b@firma.pl"},
	}, raw.Headers)
	require.Len(t, raw.Parts, 2)
	assert.Equal(t, core.Part{Filename: "Faktura_1.pdf", MimeType: "application/pdf", AttachmentID: "ANGjdJ8"}, raw.Parts[1])
}

func TestMailbox_GetAttachment(t *testing.T) {
	pdf := []byte("%PDF-1.4\xff\xfe")
	mux := http.NewServeMux()
	mux.HandleFunc("/gmail/v1/users/me/messages/m1/attachments/a1", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"size": len(pdf), "data": base64.URLEncoding.EncodeToString(pdf)})
	})
	mux.HandleFunc("/gmail/v1/users/me/messages/m1/attachments/empty", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"size": 0})
	})
	mb := newTestMailbox(t, mux)

	data, err := mb.GetAttachment(context.Background(), "m1", "a1")
	require.NoError(t, err)
	assert.Equal(t, pdf, data)

	data, err = mb.GetAttachment(context.Background(), "m1", "empty")
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestMailbox_Unauthorized(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/gmail/v1/users/me/messages", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"code":401,"message":"Invalid Credentials"}}`, http.StatusUnauthorized)
	})

	_, err := newTestMailbox(t, mux).ListMessageIDs(context.Background())

	require.Error(t, err)
	assert.True(t, core.IsAuthError(err))
}

func TestMailbox_ServerErrorIsNotAuth(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/gmail/v1/users/me/messages", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "backend error", http.StatusServiceUnavailable)
	})

	_, err := newTestMailbox(t, mux).ListMessageIDs(context.Background())

	require.Error(t, err)
	assert.False(t, core.IsAuthError(err))
}
