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

package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/veristruct/voice-hub/internal/api"
	"github.com/veristruct/voice-hub/internal/asr"
	"github.com/veristruct/voice-hub/internal/audio"
	"github.com/veristruct/voice-hub/internal/config"
	"github.com/veristruct/voice-hub/internal/dsp"
	"github.com/veristruct/voice-hub/internal/events"
	"github.com/veristruct/voice-hub/internal/logging"
	"github.com/veristruct/voice-hub/internal/messaging"
	"github.com/veristruct/voice-hub/internal/storage"
)

// Transcriber is the speech pipeline surface the server drives.
type Transcriber interface {
	Transcribe(ctx context.Context, samples []float32, language string) (*asr.TranscriptionResult, error)
	DetectVoiceActivity(samples []float32, frameMs int) []bool
	Loaded() bool
}

// Server is the HTTP front of the voice hub: audio uploads in,
// transcriptions out, history queries on the side.
type Server struct {
	cfg    *config.Config
	mux    *http.ServeMux
	server *http.Server

	transcriber Transcriber
	store       *storage.TranscriptionEventsStore
	bus         *messaging.NATSService

	// Server context for graceful shutdown
	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a server wired to the speech pipeline, event store and
// message bus. bus may be nil when NATS is unavailable; publishing is
// then skipped.
func New(cfg *config.Config, transcriber Transcriber, store *storage.TranscriptionEventsStore, bus *messaging.NATSService) *Server {
	mux := http.NewServeMux()
	ctx, cancel := context.WithCancel(context.Background())

	s := &Server{
		cfg:         cfg,
		mux:         mux,
		transcriber: transcriber,
		store:       store,
		bus:         bus,
		ctx:         ctx,
		cancel:      cancel,
	}

	s.server = &http.Server{
		Addr:         ":" + strconv.Itoa(s.cfg.Server.Port),
		Handler:      s.mux,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	s.routes()

	return s
}

// Start starts the HTTP server and blocks until shutdown.
func (s *Server) Start() error {
	logging.Sugar.Infow("🚀 Voice Hub starting",
		"http_port", s.cfg.Server.Port,
		"model_loaded", s.transcriber.Loaded())

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("HTTP server failed: %w", err)
	}

	return nil
}

// Stop gracefully shuts down the server.
func (s *Server) Stop() error {
	logging.Sugar.Infow("🛑 Shutting down Voice Hub")

	s.cancel()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	logging.Sugar.Infow("✅ Voice Hub shut down successfully")
	return nil
}

// Handler exposes the route table for tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// routes sets up HTTP routing.
func (s *Server) routes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/transcribe", s.handleTranscribe)
	s.mux.HandleFunc("/api/vad", s.handleVAD)

	eventsHandler := api.NewTranscriptionEventsHandler(s.store)
	s.mux.HandleFunc("/api/transcriptions", eventsHandler.HandleTranscriptions)
	s.mux.HandleFunc("/api/transcriptions/", eventsHandler.HandleTranscriptionByID)
}

// handleHealth provides system health information.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := map[string]interface{}{
		"status":       "ok",
		"timestamp":    time.Now(),
		"model_loaded": s.transcriber.Loaded(),
	}
	if s.bus != nil {
		health["nats_connected"] = s.bus.IsConnected()
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(health); err != nil {
		logging.Sugar.Errorw("Failed to write health response", "error", err)
	}
}

// handleTranscribe accepts a WAV body and returns the transcription.
// Query parameters: language (optional), source_id (optional).
func (s *Server) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	samples, sampleRate, ok := s.decodeUpload(w, r)
	if !ok {
		return
	}

	language := r.URL.Query().Get("language")
	if language == "" {
		language = s.cfg.Speech.Language
	}
	sourceID := r.URL.Query().Get("source_id")
	if sourceID == "" {
		sourceID = "api"
	}

	event := events.NewTranscriptionEvent(sourceID, r.Header.Get("X-Request-Id"))
	if event.RequestID == "" {
		event.RequestID = event.UUID
	}
	event.SetAudioMetadata(samples, sampleRate)

	result, err := s.transcriber.Transcribe(r.Context(), samples, language)
	if err != nil {
		switch {
		case errors.Is(err, asr.ErrNotLoaded):
			http.Error(w, "Speech model not loaded", http.StatusServiceUnavailable)
		case errors.Is(err, context.Canceled):
			// Client went away; nothing useful to write.
		default:
			logging.LogError(err, "Transcription failed",
				zap.String("source_id", sourceID))
			http.Error(w, "Transcription failed", http.StatusInternalServerError)
		}
		event.SetError(err)
		s.recordEvent(event)
		return
	}

	event.SetResult(result.Text, result.Language, result.Confidence,
		result.ProcessingTimeMs, result.RealTimeFactor)
	s.recordEvent(event)

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(result); err != nil {
		logging.Sugar.Errorw("Failed to write transcription response", "error", err)
	}
}

// handleVAD accepts a WAV body and returns per-frame speech decisions.
// Query parameter frame_ms selects the frame length, default 20 ms.
func (s *Server) handleVAD(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	samples, _, ok := s.decodeUpload(w, r)
	if !ok {
		return
	}

	frameMs := 0
	if v := r.URL.Query().Get("frame_ms"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			http.Error(w, "frame_ms must be a non-negative integer", http.StatusBadRequest)
			return
		}
		frameMs = parsed
	}

	decisions := s.transcriber.DetectVoiceActivity(samples, frameMs)

	speechFrames := 0
	for _, isSpeech := range decisions {
		if isSpeech {
			speechFrames++
		}
	}

	response := map[string]interface{}{
		"frame_ms":      frameMs,
		"total_frames":  len(decisions),
		"speech_frames": speechFrames,
		"frames":        decisions,
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		logging.Sugar.Errorw("Failed to write VAD response", "error", err)
	}
}

// decodeUpload reads a WAV request body, enforcing the upload limit and
// the pipeline's fixed sample rate. On failure it writes the HTTP error
// and returns ok = false.
func (s *Server) decodeUpload(w http.ResponseWriter, r *http.Request) ([]float32, int, bool) {
	body := http.MaxBytesReader(w, r.Body, s.cfg.Server.MaxUploadBytes)
	defer func() { _ = body.Close() }()

	samples, sampleRate, err := audio.DecodeWAV(body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			http.Error(w, "Audio upload too large", http.StatusRequestEntityTooLarge)
			return nil, 0, false
		}
		http.Error(w, "Invalid WAV payload", http.StatusBadRequest)
		return nil, 0, false
	}

	if sampleRate != dsp.SampleRate {
		http.Error(w,
			fmt.Sprintf("Unsupported sample rate %d, expected %d", sampleRate, dsp.SampleRate),
			http.StatusUnprocessableEntity)
		return nil, 0, false
	}

	return samples, sampleRate, true
}

// recordEvent persists and publishes a transcription event. Failures are
// logged, not surfaced; the transcription response stands on its own.
func (s *Server) recordEvent(event *events.TranscriptionEvent) {
	if s.store != nil {
		if err := s.store.Insert(event); err != nil {
			logging.LogError(err, "Failed to store transcription event",
				zap.String("uuid", event.UUID))
		}
	}

	if s.bus != nil && s.bus.IsConnected() {
		if err := s.bus.PublishTranscription(event); err != nil {
			logging.LogError(err, "Failed to publish transcription event",
				zap.String("uuid", event.UUID))
		}
	}
}
