package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventhub/internal/delivery/http/helpers"
	"eventhub/internal/domain"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

// fakeTokenVerifier implements domain.TokenVerifier for tests.
type fakeTokenVerifier struct {
	userID domain.ID
	err    error
}

func (f *fakeTokenVerifier) Verify(_ string) (domain.ID, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.userID, nil
}

func TestExtractToken(t *testing.T) {
	t.Run("authorization header", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/events", nil)
		r.Header.Set("Authorization", "Bearer abc123")
		assert.Equal(t, "abc123", ExtractToken(r))
	})

	t.Run("non-bearer header yields nothing", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/events", nil)
		r.Header.Set("Authorization", "Basic abc123")
		assert.Equal(t, "", ExtractToken(r))
	})

	t.Run("query parameters", func(t *testing.T) {
		for _, key := range []string{"token", "accessToken", "credential"} {
			r := httptest.NewRequest(http.MethodGet, "/events?"+key+"=qtok", nil)
			assert.Equal(t, "qtok", ExtractToken(r), key)
		}
	})

	t.Run("header wins over query", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/events?token=qtok", nil)
		r.Header.Set("Authorization", "Bearer htok")
		assert.Equal(t, "htok", ExtractToken(r))
	})

	t.Run("form-encoded body", func(t *testing.T) {
		form := url.Values{"token": {"ftok"}}
		r := httptest.NewRequest(http.MethodPost, "/events", strings.NewReader(form.Encode()))
		r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		assert.Equal(t, "ftok", ExtractToken(r))
	})

	t.Run("multipart body", func(t *testing.T) {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		require.NoError(t, mw.WriteField("token", "mtok"))
		require.NoError(t, mw.Close())

		r := httptest.NewRequest(http.MethodPost, "/events", &buf)
		r.Header.Set("Content-Type", mw.FormDataContentType())
		assert.Equal(t, "mtok", ExtractToken(r))
	})

	t.Run("json body is never read", func(t *testing.T) {
		body := strings.NewReader(`{"token":"jtok"}`)
		r := httptest.NewRequest(http.MethodPost, "/events", body)
		r.Header.Set("Content-Type", "application/json")
		assert.Equal(t, "", ExtractToken(r))
		b, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.JSONEq(t, `{"token":"jtok"}`, string(b), "body left intact for the handler")
	})

	t.Run("nothing anywhere", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/events", nil)
		assert.Equal(t, "", ExtractToken(r))
	})
}

func decodeErrorCode(t *testing.T, body io.Reader) string {
	t.Helper()
	var resp helpers.APIResponse
	require.NoError(t, json.NewDecoder(body).Decode(&resp))
	require.NotNil(t, resp.Error)
	return resp.Error.Code
}

func TestRequireAuth(t *testing.T) {
	tests := []struct {
		name          string
		authHeader    string
		verifier      domain.TokenVerifier
		wantStatus    int
		wantBodyCode  string
		nextCalled    bool
		wantContextID domain.ID
	}{
		{
			name:          "valid credential sets context and calls next",
			authHeader:    "Bearer valid-token",
			verifier:      &fakeTokenVerifier{userID: "user-123"},
			wantStatus:    http.StatusOK,
			nextCalled:    true,
			wantContextID: "user-123",
		},
		{
			name:         "missing credential",
			authHeader:   "",
			verifier:     &fakeTokenVerifier{userID: "user-123"},
			wantStatus:   http.StatusUnauthorized,
			wantBodyCode: helpers.ErrCodeUnauthorized,
		},
		{
			name:         "empty token after Bearer",
			authHeader:   "Bearer ",
			verifier:     &fakeTokenVerifier{userID: "user-123"},
			wantStatus:   http.StatusUnauthorized,
			wantBodyCode: helpers.ErrCodeUnauthorized,
		},
		{
			name:         "rejected credential is told apart from a missing one",
			authHeader:   "Bearer bad-token",
			verifier:     &fakeTokenVerifier{err: errors.New("expired")},
			wantStatus:   http.StatusUnauthorized,
			wantBodyCode: helpers.ErrCodeInvalidCredential,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nextCalled := false
			var gotID domain.ID
			next := func(w http.ResponseWriter, r *http.Request) {
				nextCalled = true
				gotID, _ = UserIDFromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			}

			r := httptest.NewRequest(http.MethodDelete, "/events/ev-1", nil)
			if tt.authHeader != "" {
				r.Header.Set("Authorization", tt.authHeader)
			}
			rec := httptest.NewRecorder()
			RequireAuth(tt.verifier, testLogger)(next)(rec, r)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.nextCalled, nextCalled)
			if tt.wantBodyCode != "" {
				assert.Equal(t, tt.wantBodyCode, decodeErrorCode(t, rec.Body))
			}
			if tt.wantContextID != "" {
				assert.Equal(t, tt.wantContextID, gotID)
			}
		})
	}
}

func TestOptionalAuth(t *testing.T) {
	run := func(t *testing.T, verifier domain.TokenVerifier, authHeader string) (int, domain.ID, bool) {
		t.Helper()
		var gotID domain.ID
		var present bool
		next := func(w http.ResponseWriter, r *http.Request) {
			gotID, present = UserIDFromContext(r.Context())
			w.WriteHeader(http.StatusOK)
		}
		r := httptest.NewRequest(http.MethodGet, "/events/ev-1", nil)
		if authHeader != "" {
			r.Header.Set("Authorization", authHeader)
		}
		rec := httptest.NewRecorder()
		OptionalAuth(verifier, testLogger)(next)(rec, r)
		return rec.Code, gotID, present
	}

	t.Run("valid credential identifies the viewer", func(t *testing.T) {
		code, id, present := run(t, &fakeTokenVerifier{userID: "user-123"}, "Bearer tok")
		assert.Equal(t, http.StatusOK, code)
		assert.True(t, present)
		assert.Equal(t, domain.ID("user-123"), id)
	})

	t.Run("no credential serves anonymously", func(t *testing.T) {
		code, _, present := run(t, &fakeTokenVerifier{userID: "user-123"}, "")
		assert.Equal(t, http.StatusOK, code)
		assert.False(t, present)
	})

	t.Run("rejected credential degrades to anonymous instead of failing", func(t *testing.T) {
		code, _, present := run(t, &fakeTokenVerifier{err: errors.New("expired")}, "Bearer stale")
		assert.Equal(t, http.StatusOK, code)
		assert.False(t, present)
	})
}
