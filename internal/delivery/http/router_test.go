package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventhub/internal/delivery/http/controllers"
	"eventhub/internal/domain"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

type stubVerifier struct {
	userID domain.ID
	err    error
}

func (s *stubVerifier) Verify(_ string) (domain.ID, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.userID, nil
}

type stubEventService struct {
	event *domain.Event
}

func (s *stubEventService) List(context.Context, domain.EventFilter) ([]*domain.Event, error) {
	return []*domain.Event{s.event}, nil
}

func (s *stubEventService) GetByID(context.Context, domain.ID) (*domain.Event, error) {
	return s.event, nil
}

func (s *stubEventService) ListByOwner(context.Context, domain.ID) ([]*domain.Event, error) {
	return []*domain.Event{s.event}, nil
}

func (s *stubEventService) Create(context.Context, domain.ID, *domain.Event, *domain.MediaUpload) (*domain.Event, error) {
	return s.event, nil
}

func (s *stubEventService) Update(context.Context, domain.ID, domain.ID, domain.EventUpdate, *domain.MediaUpload) (*domain.Event, error) {
	return s.event, nil
}

func (s *stubEventService) Delete(context.Context, domain.ID, domain.ID) error { return nil }

type stubAuthService struct{}

func (s *stubAuthService) SignUp(context.Context, string, string, string) (*domain.User, error) {
	return nil, errors.New("not under test")
}

func (s *stubAuthService) Login(context.Context, string, string) (string, *domain.User, error) {
	return "", nil, errors.New("not under test")
}

func newTestRouter(verifier domain.TokenVerifier) *http.ServeMux {
	event := &domain.Event{
		ID:          "ev-1",
		Title:       "Jazz Night",
		Description: "An evening of live jazz",
		Date:        time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		Time:        "20:00",
		Location:    "Hall A",
		Organizer:   "Alice",
		Category:    "Music",
		IsFree:      true,
		Owner:       "user-1",
	}
	eventController := controllers.NewEventController(testLogger, &stubEventService{event: event})
	authController := controllers.NewAuthController(testLogger, &stubAuthService{})
	return NewRouter(eventController, authController, verifier, testLogger)
}

func getEventView(t *testing.T, mux *http.ServeMux, authHeader string) (int, map[string]any) {
	t.Helper()
	r := httptest.NewRequest(http.MethodGet, "/events/ev-1", nil)
	if authHeader != "" {
		r.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, r)

	var resp struct {
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return rec.Code, resp.Data
}

func TestRouter_ReadOneCredentialDegradation(t *testing.T) {
	t.Run("owner credential marks ownership", func(t *testing.T) {
		mux := newTestRouter(&stubVerifier{userID: "user-1"})
		code, data := getEventView(t, mux, "Bearer good")
		require.Equal(t, http.StatusOK, code)
		assert.Equal(t, true, data["isOwner"])
		assert.Equal(t, "user-1", data["owner"])
	})

	t.Run("expired credential answers with the anonymous payload", func(t *testing.T) {
		mux := newTestRouter(&stubVerifier{err: domain.ErrInvalidCredential})
		code, data := getEventView(t, mux, "Bearer stale")
		require.Equal(t, http.StatusOK, code)
		_, hasIsOwner := data["isOwner"]
		assert.False(t, hasIsOwner, "anonymous payload must carry no ownership annotation")
		_, hasOwner := data["owner"]
		assert.False(t, hasOwner)
	})

	t.Run("no credential answers with the anonymous payload", func(t *testing.T) {
		mux := newTestRouter(&stubVerifier{userID: "user-1"})
		code, data := getEventView(t, mux, "")
		require.Equal(t, http.StatusOK, code)
		_, hasIsOwner := data["isOwner"]
		assert.False(t, hasIsOwner, "anonymous payload must carry no ownership annotation")
		_, hasOwner := data["owner"]
		assert.False(t, hasOwner)
	})
}

func TestRouter_MutationsRequireCredential(t *testing.T) {
	mux := newTestRouter(&stubVerifier{userID: "user-1"})

	for _, tc := range []struct{ method, path string }{
		{http.MethodPost, "/events"},
		{http.MethodPatch, "/events/ev-1"},
		{http.MethodDelete, "/events/ev-1"},
		{http.MethodGet, "/events/filtered"},
	} {
		r := httptest.NewRequest(tc.method, tc.path, nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, r)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, tc.method+" "+tc.path)
	}
}

func TestRouter_QueryTokenReachesProtectedRoute(t *testing.T) {
	mux := newTestRouter(&stubVerifier{userID: "user-1"})

	r := httptest.NewRequest(http.MethodGet, "/events/filtered?accessToken=tok", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, r)
	assert.Equal(t, http.StatusOK, rec.Code)
}
