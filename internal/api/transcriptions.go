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
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/veristruct/voice-hub/internal/events"
	"github.com/veristruct/voice-hub/internal/logging"
	"github.com/veristruct/voice-hub/internal/storage"
)

// TranscriptionEventsHandler handles HTTP requests for transcription history
type TranscriptionEventsHandler struct {
	store *storage.TranscriptionEventsStore
}

// NewTranscriptionEventsHandler creates a new transcription events handler
func NewTranscriptionEventsHandler(store *storage.TranscriptionEventsStore) *TranscriptionEventsHandler {
	return &TranscriptionEventsHandler{store: store}
}

// ListTranscriptionsResponse represents the response for listing transcription events
type ListTranscriptionsResponse struct {
	Events     []*events.TranscriptionEvent `json:"events"`
	Total      int64                        `json:"total"`
	Page       int                          `json:"page"`
	PageSize   int                          `json:"page_size"`
	TotalPages int                          `json:"total_pages"`
}

// CreateTranscriptionRequest represents the request for recording an
// externally produced transcription
type CreateTranscriptionRequest struct {
	SourceID         string  `json:"source_id"`
	RequestID        string  `json:"request_id"`
	Text             string  `json:"text"`
	Language         string  `json:"language"`
	Confidence       float64 `json:"confidence"`
	AudioDurationMs  float64 `json:"audio_duration_ms,omitempty"`
	SampleRate       int     `json:"sample_rate,omitempty"`
	ProcessingTimeMs int64   `json:"processing_time_ms,omitempty"`
	RealTimeFactor   float64 `json:"real_time_factor,omitempty"`
}

// HandleTranscriptions handles GET /api/transcriptions and POST /api/transcriptions
func (h *TranscriptionEventsHandler) HandleTranscriptions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.listTranscriptions(w, r)
	case http.MethodPost:
		h.createTranscription(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandleTranscriptionByID handles GET /api/transcriptions/{id}
func (h *TranscriptionEventsHandler) HandleTranscriptionByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	pathParts := strings.Split(strings.TrimPrefix(r.URL.Path, "/api/transcriptions/"), "/")
	if len(pathParts) == 0 || pathParts[0] == "" {
		http.Error(w, "Event ID is required", http.StatusBadRequest)
		return
	}

	uuid := pathParts[0]
	h.getTranscriptionByID(w, r, uuid)
}

// listTranscriptions handles GET /api/transcriptions
func (h *TranscriptionEventsHandler) listTranscriptions(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	// Pagination
	page := parseIntParam(query.Get("page"), 1)
	pageSize := parseIntParam(query.Get("page_size"), 20)
	if pageSize > 100 {
		pageSize = 100 // Limit maximum page size
	}
	if pageSize < 1 {
		pageSize = 1
	}
	if page < 1 {
		page = 1
	}

	// Filtering
	options := storage.ListOptions{
		SourceID:  query.Get("source_id"),
		Language:  query.Get("language"),
		Limit:     pageSize,
		Offset:    (page - 1) * pageSize,
		SortBy:    query.Get("sort_by"),
		SortOrder: strings.ToUpper(query.Get("sort_order")),
	}

	if successStr := query.Get("success"); successStr != "" {
		if success, err := strconv.ParseBool(successStr); err == nil {
			options.Success = &success
		}
	}

	if startTimeStr := query.Get("start_time"); startTimeStr != "" {
		if startTime, err := time.Parse(time.RFC3339, startTimeStr); err == nil {
			options.StartTime = &startTime
		}
	}
	if endTimeStr := query.Get("end_time"); endTimeStr != "" {
		if endTime, err := time.Parse(time.RFC3339, endTimeStr); err == nil {
			options.EndTime = &endTime
		}
	}

	total, err := h.store.Count(options)
	if err != nil {
		logging.LogError(err, "Failed to count transcription events")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	eventsList, err := h.store.List(options)
	if err != nil {
		logging.LogError(err, "Failed to list transcription events")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	response := ListTranscriptionsResponse{
		Events:     eventsList,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}

	logging.LogTranscription("Transcription list request",
		zap.Int("page", page),
		zap.Int("page_size", pageSize),
		zap.Int64("total_results", total),
		zap.String("source_id", options.SourceID),
		zap.String("language", options.Language),
	)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// createTranscription handles POST /api/transcriptions
func (h *TranscriptionEventsHandler) createTranscription(w http.ResponseWriter, r *http.Request) {
	var req CreateTranscriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	if req.SourceID == "" {
		http.Error(w, "source_id is required", http.StatusBadRequest)
		return
	}
	if req.RequestID == "" {
		req.RequestID = req.SourceID // Default to source ID
	}

	event := events.NewTranscriptionEvent(req.SourceID, req.RequestID)
	event.SetResult(req.Text, req.Language, req.Confidence, req.ProcessingTimeMs, req.RealTimeFactor)
	event.AudioDurationMs = req.AudioDurationMs
	event.SampleRate = req.SampleRate

	if err := h.store.Insert(event); err != nil {
		logging.LogError(err, "Failed to create transcription event",
			zap.String("source_id", req.SourceID),
		)
		http.Error(w, "Failed to create transcription event", http.StatusInternalServerError)
		return
	}

	logging.LogTranscription("Transcription event created via API",
		zap.String("event_uuid", event.UUID),
		zap.String("source_id", req.SourceID),
	)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(event)
}

// getTranscriptionByID handles GET /api/transcriptions/{id}
func (h *TranscriptionEventsHandler) getTranscriptionByID(w http.ResponseWriter, r *http.Request, uuid string) {
	event, err := h.store.GetByUUID(uuid)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			http.Error(w, "Transcription event not found", http.StatusNotFound)
			return
		}
		logging.LogError(err, "Failed to get transcription event",
			zap.String("uuid", uuid),
		)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(event)
}

// parseIntParam parses integer parameter with default value
func parseIntParam(param string, defaultValue int) int {
	if param == "" {
		return defaultValue
	}

	if value, err := strconv.Atoi(param); err == nil {
		return value
	}

	return defaultValue
}
