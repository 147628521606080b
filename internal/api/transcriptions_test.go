/*
 * This file is part of Voice Hub (https://github.com/veristruct/voice-hub).
 * Copyright (C) 2025 Veristruct
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU Affero General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
 * GNU Affero General Public License for more details.
 *
 * You should have received a copy of the GNU Affero General Public License
 * along with this program. If not, see <https://www.gnu.org/licenses/>.
 */

package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veristruct/voice-hub/internal/events"
	"github.com/veristruct/voice-hub/internal/logging"
	"github.com/veristruct/voice-hub/internal/storage"
)

func newTestHandler(t *testing.T) (*TranscriptionEventsHandler, *storage.TranscriptionEventsStore) {
	t.Helper()

	require.NoError(t, logging.InitializeWithConfig(logging.LogConfig{Level: "error", Format: "console"}))

	db, err := storage.NewDatabase(storage.DatabaseConfig{Path: filepath.Join(t.TempDir(), "api.db")})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store := storage.NewTranscriptionEventsStore(db)
	return NewTranscriptionEventsHandler(store), store
}

func storedEvent(t *testing.T, store *storage.TranscriptionEventsStore, sourceID, text string) *events.TranscriptionEvent {
	t.Helper()
	event := events.NewTranscriptionEvent(sourceID, "req-1")
	event.SetAudioMetadata([]float32{0.1, 0.2}, 16000)
	event.SetResult(text, "en", 0.9, 100, 0.3)
	require.NoError(t, store.Insert(event))
	return event
}

func TestListTranscriptions(t *testing.T) {
	handler, store := newTestHandler(t)
	storedEvent(t, store, "desk-mic", "hello")
	storedEvent(t, store, "desk-mic", "world")
	storedEvent(t, store, "wall-panel", "lights on")

	req := httptest.NewRequest(http.MethodGet, "/api/transcriptions?source_id=desk-mic", nil)
	rec := httptest.NewRecorder()
	handler.HandleTranscriptions(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp ListTranscriptionsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(2), resp.Total)
	assert.Len(t, resp.Events, 2)
	assert.Equal(t, 1, resp.Page)
}

func TestListTranscriptionsPagination(t *testing.T) {
	handler, store := newTestHandler(t)
	for i := 0; i < 5; i++ {
		storedEvent(t, store, "desk-mic", "hello")
	}

	req := httptest.NewRequest(http.MethodGet, "/api/transcriptions?page=2&page_size=2", nil)
	rec := httptest.NewRecorder()
	handler.HandleTranscriptions(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp ListTranscriptionsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(5), resp.Total)
	assert.Len(t, resp.Events, 2)
	assert.Equal(t, 3, resp.TotalPages)
}

func TestCreateTranscription(t *testing.T) {
	handler, store := newTestHandler(t)

	body, _ := json.Marshal(CreateTranscriptionRequest{
		SourceID:   "desk-mic",
		Text:       "turn on the lights",
		Language:   "en",
		Confidence: 0.88,
	})
	req := httptest.NewRequest(http.MethodPost, "/api/transcriptions", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	handler.HandleTranscriptions(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var created events.TranscriptionEvent
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.NotEmpty(t, created.UUID)
	assert.Equal(t, "desk-mic", created.SourceID)

	stored, err := store.GetByUUID(created.UUID)
	require.NoError(t, err)
	assert.Equal(t, "turn on the lights", stored.Text)
}

func TestCreateTranscriptionRequiresSource(t *testing.T) {
	handler, _ := newTestHandler(t)

	body := []byte(`{"text": "no source"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/transcriptions", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	handler.HandleTranscriptions(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateTranscriptionBadJSON(t *testing.T) {
	handler, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/transcriptions", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	handler.HandleTranscriptions(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetTranscriptionByID(t *testing.T) {
	handler, store := newTestHandler(t)
	event := storedEvent(t, store, "desk-mic", "hello")

	req := httptest.NewRequest(http.MethodGet, "/api/transcriptions/"+event.UUID, nil)
	rec := httptest.NewRecorder()
	handler.HandleTranscriptionByID(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var got events.TranscriptionEvent
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, event.UUID, got.UUID)
	assert.Equal(t, "hello", got.Text)
}

func TestGetTranscriptionByIDNotFound(t *testing.T) {
	handler, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/transcriptions/does-not-exist", nil)
	rec := httptest.NewRecorder()
	handler.HandleTranscriptionByID(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMethodNotAllowed(t *testing.T) {
	handler, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodDelete, "/api/transcriptions", nil)
	rec := httptest.NewRecorder()
	handler.HandleTranscriptions(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
