package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TripBot/entity"
	"TripBot/internal/lib/api/response"
)

const key = "s3cret-admin-key"

type handlerStub struct {
	reset []int64
	trips map[int64]*entity.Trip
}

func (h *handlerStub) ResetSessions(user int64) {
	h.reset = append(h.reset, user)
}

func (h *handlerStub) FindTrip(_ context.Context, id int64) (*entity.Trip, error) {
	return h.trips[id], nil
}

func serve(t *testing.T, h *handlerStub, method, target, token string) (*httptest.ResponseRecorder, response.Response) {
	t.Helper()
	router := NewRouter(key, slog.New(slog.NewTextHandler(io.Discard, nil)), h)
	req := httptest.NewRequest(method, target, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var body response.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func TestHealthIsOpen(t *testing.T) {
	rec, body := serve(t, &handlerStub{}, http.MethodGet, "/api/v1/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, body.Success)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestKeyRequired(t *testing.T) {
	h := &handlerStub{}
	rec, _ := serve(t, h, http.MethodPost, "/api/v1/session/reset?user=5", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = serve(t, h, http.MethodPost, "/api/v1/session/reset?user=5", "wrong")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, h.reset)
}

func TestSessionReset(t *testing.T) {
	h := &handlerStub{}
	rec, body := serve(t, h, http.MethodPost, "/api/v1/session/reset?user=5", key)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, body.Success)
	assert.Equal(t, []int64{5}, h.reset)

	rec, _ = serve(t, h, http.MethodPost, "/api/v1/session/reset?user=abc", key)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTripLookup(t *testing.T) {
	h := &handlerStub{trips: map[int64]*entity.Trip{3: {ID: 3, Name: "Euro Trip"}}}

	rec, body := serve(t, h, http.MethodGet, "/api/v1/trip/3", key)
	assert.Equal(t, http.StatusOK, rec.Code)
	data, ok := body.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Euro Trip", data["name"])

	rec, _ = serve(t, h, http.MethodGet, "/api/v1/trip/4", key)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = serve(t, h, http.MethodGet, "/api/v1/nowhere", key)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
