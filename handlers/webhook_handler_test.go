package handlers

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	svix "github.com/svix/svix-webhooks/go"

	"careerHubAPI/internal/logger"
	"careerHubAPI/internal/testutil"
	"careerHubAPI/internal/types/user"
	"careerHubAPI/services"
)

var testWebhookSecret = "whsec_" + base64.StdEncoding.EncodeToString([]byte("careerhub-webhook-signing-key"))

func signedHeadersAt(t *testing.T, body string, at time.Time) http.Header {
	t.Helper()
	wh, err := svix.NewWebhook(testWebhookSecret)
	require.NoError(t, err)
	sig, err := wh.Sign("msg_1", at, []byte(body))
	require.NoError(t, err)

	h := http.Header{}
	h.Set("svix-id", "msg_1")
	h.Set("svix-timestamp", strconv.FormatInt(at.Unix(), 10))
	h.Set("svix-signature", sig)
	return h
}

func signedHeaders(t *testing.T, body string) http.Header {
	return signedHeadersAt(t, body, time.Now())
}

func TestClerkWebhookSignature(t *testing.T) {
	body := `{"type":"email.created","data":{}}`

	tests := []struct {
		name   string
		header func(t *testing.T) http.Header
		want   int
	}{
		{"valid", func(t *testing.T) http.Header { return signedHeaders(t, body) }, http.StatusOK},
		{"one of several signatures matches", func(t *testing.T) http.Header {
			h := signedHeaders(t, body)
			h.Set("svix-signature", "v1,bm90LWl0 "+h.Get("svix-signature"))
			return h
		}, http.StatusOK},
		{"tampered body", func(t *testing.T) http.Header { return signedHeaders(t, `{"type":"user.deleted"}`) }, http.StatusUnauthorized},
		{"stale timestamp", func(t *testing.T) http.Header {
			return signedHeadersAt(t, body, time.Now().Add(-10*time.Minute))
		}, http.StatusUnauthorized},
		{"missing headers", func(t *testing.T) http.Header { return http.Header{} }, http.StatusUnauthorized},
		{"wrong version", func(t *testing.T) http.Header {
			h := signedHeaders(t, body)
			h.Set("svix-signature", strings.Replace(h.Get("svix-signature"), "v1,", "v2,", 1))
			return h
		}, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := newWebhookFixture(t)
			rec := postWebhook(h, body, tt.header(t))
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestNewWebhookHandlerRejectsMalformedSecret(t *testing.T) {
	_, err := NewWebhookHandler(nil, nil, "whsec_%%%not-base64", logger.Nop())
	assert.Error(t, err)
}

func newWebhookFixture(t *testing.T) (*WebhookHandler, *testutil.Store) {
	t.Helper()
	store := testutil.NewStore()
	users := services.NewUserService(nil, store.Users, logger.Nop())
	streaks := services.NewStreakService(nil, store, store.Users, store.Streaks, time.UTC, logger.Nop())
	h, err := NewWebhookHandler(users, streaks, testWebhookSecret, logger.Nop())
	require.NoError(t, err)
	return h, store
}

func postWebhook(h *WebhookHandler, body string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhooks/clerk", strings.NewReader(body))
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	h.HandleClerkWebhook(rec, req)
	return rec
}

func TestClerkWebhookUserLifecycle(t *testing.T) {
	h, store := newWebhookFixture(t)
	ctx := context.Background()

	created := `{"type":"user.created","object":"event","data":{"id":"user_9","first_name":"Ana","last_name":"Lee","primary_email_address_id":"e2","email_addresses":[{"id":"e1","email_address":"old@careerhub.io"},{"id":"e2","email_address":"ana@careerhub.io"}]}}`
	rec := postWebhook(h, created, signedHeaders(t, created))
	require.Equal(t, http.StatusOK, rec.Code)

	u, err := store.Users.GetByClerkID(ctx, nil, "user_9")
	require.NoError(t, err)
	assert.Equal(t, "ana@careerhub.io", u.Email)
	assert.Equal(t, "ana", u.Username)
	assert.Equal(t, user.RoleMember, u.Role)

	updated := `{"type":"user.updated","object":"event","data":{"id":"user_9","first_name":"Anna","last_name":"Lee","username":"anna.lee"}}`
	rec = postWebhook(h, updated, signedHeaders(t, updated))
	require.Equal(t, http.StatusOK, rec.Code)
	u, err = store.Users.GetByClerkID(ctx, nil, "user_9")
	require.NoError(t, err)
	assert.Equal(t, "Anna", u.FirstName)
	assert.Equal(t, "anna.lee", u.Username)
	assert.Equal(t, "ana@careerhub.io", u.Email)

	session := `{"type":"session.created","object":"event","data":{"id":"sess_1","user_id":"user_9","status":"active"}}`
	rec = postWebhook(h, session, signedHeaders(t, session))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, store.LogEntries(), 1)
	assert.Equal(t, "general", store.LogEntries()[0].ActivityType)

	deleted := `{"type":"user.deleted","object":"event","data":{"id":"user_9","deleted":true}}`
	rec = postWebhook(h, deleted, signedHeaders(t, deleted))
	require.Equal(t, http.StatusOK, rec.Code)
	_, err = store.Users.GetByClerkID(ctx, nil, "user_9")
	assert.Error(t, err)

	rec = postWebhook(h, deleted, signedHeaders(t, deleted))
	assert.Equal(t, http.StatusOK, rec.Code, "replayed delete is a no-op")
}

func TestClerkWebhookRejectsBadSignature(t *testing.T) {
	h, store := newWebhookFixture(t)

	body := `{"type":"user.created","data":{"id":"user_evil"}}`
	header := signedHeaders(t, body)
	header.Set("svix-signature", "v1,"+base64.StdEncoding.EncodeToString([]byte("forged")))

	rec := postWebhook(h, body, header)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	_, err := store.Users.GetByClerkID(context.Background(), nil, "user_evil")
	assert.Error(t, err)
}

func TestClerkWebhookUpdateForUnknownUserCreatesIt(t *testing.T) {
	h, store := newWebhookFixture(t)

	body := `{"type":"user.updated","data":{"id":"user_late","first_name":"Sam","email_addresses":[{"id":"e1","email_address":"sam@careerhub.io"}]}}`
	rec := postWebhook(h, body, signedHeaders(t, body))
	require.Equal(t, http.StatusOK, rec.Code)

	u, err := store.Users.GetByClerkID(context.Background(), nil, "user_late")
	require.NoError(t, err)
	assert.Equal(t, "sam@careerhub.io", u.Email)
}
