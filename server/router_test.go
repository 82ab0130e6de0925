package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"poker-arena/server/engine"
	"poker-arena/server/store"
)

type fakeReader struct {
	hands   map[string]engine.Snapshot
	ratings []store.Rating
	down    error
	limit   int
}

func (f *fakeReader) RecentHands(_ context.Context, limit int) ([]store.HandSummary, error) {
	f.limit = limit
	out := []store.HandSummary{}
	for id := range f.hands {
		out = append(out, store.HandSummary{ID: id})
	}
	return out, f.down
}

func (f *fakeReader) GetHand(_ context.Context, id string) (engine.Snapshot, error) {
	if f.down != nil {
		return engine.Snapshot{}, f.down
	}
	s, ok := f.hands[id]
	if !ok {
		return engine.Snapshot{}, store.ErrNotFound
	}
	return s, nil
}

func (f *fakeReader) Ratings(context.Context) ([]store.Rating, error) { return f.ratings, f.down }
func (f *fakeReader) Ping(context.Context) error                     { return f.down }

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestRouter(t *testing.T) {
	snap := foldedOutHand(t)
	db := &fakeReader{
		hands:   map[string]engine.Snapshot{snap.HandID: snap},
		ratings: []store.Rating{{PlayerID: "B", Elo: 1510}, {PlayerID: "A", Elo: 1490}},
	}
	h := Router(db, log.New(io.Discard))

	rec := get(t, h, "/api/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true}`, rec.Body.String())

	rec = get(t, h, "/api/hands?limit=7")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 7, db.limit)
	var list struct {
		Rows []store.HandSummary `json:"rows"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Rows, 1)
	assert.Equal(t, snap.HandID, list.Rows[0].ID)

	rec = get(t, h, "/api/hands")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 50, db.limit)

	rec = get(t, h, "/api/hands?limit=lots")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = get(t, h, "/api/hands/"+snap.HandID)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var got engine.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, snap.Actions, got.Actions)
	assert.Equal(t, snap.PotHistory, got.PotHistory)

	rec = get(t, h, "/api/hands/missing")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = get(t, h, "/api/ratings")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"player_id": "B"`)

	rec = get(t, h, "/api/nothing")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouterStoreDown(t *testing.T) {
	h := Router(&fakeReader{down: errors.New("connection refused")}, log.New(io.Discard))

	rec := get(t, h, "/api/health")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "connection refused")

	assert.Equal(t, http.StatusInternalServerError, get(t, h, "/api/hands/x").Code)
	assert.Equal(t, http.StatusInternalServerError, get(t, h, "/api/ratings").Code)
}
