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

package events

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

// TranscriptionEvent records one speech-to-text interaction with full
// traceability, from the audio that came in to the text that went out.
type TranscriptionEvent struct {
	// Core identification
	UUID      string    `json:"uuid" db:"uuid"`
	RequestID string    `json:"request_id" db:"request_id"`
	SourceID  string    `json:"source_id" db:"source_id"`
	Timestamp time.Time `json:"timestamp" db:"timestamp"`

	// Audio metadata
	AudioHash       string  `json:"audio_hash" db:"audio_hash"`
	AudioDurationMs float64 `json:"audio_duration_ms" db:"audio_duration_ms"`
	SampleRate      int     `json:"sample_rate" db:"sample_rate"`

	// Transcription results
	Language         string  `json:"language" db:"language"`
	Text             string  `json:"text" db:"text"`
	Confidence       float64 `json:"confidence" db:"confidence"`
	ProcessingTimeMs int64   `json:"processing_time_ms" db:"processing_time_ms"`
	RealTimeFactor   float64 `json:"real_time_factor" db:"real_time_factor"`

	Success      bool   `json:"success" db:"success"`
	ErrorMessage string `json:"error_message,omitempty" db:"error_message"`
}

// NewTranscriptionEvent creates an event with a generated UUID and the
// current timestamp.
func NewTranscriptionEvent(sourceID, requestID string) *TranscriptionEvent {
	return &TranscriptionEvent{
		UUID:      uuid.NewString(),
		RequestID: requestID,
		SourceID:  sourceID,
		Timestamp: time.Now(),
		Success:   true,
	}
}

// SetAudioMetadata records the hash, duration and rate of the audio that
// produced this event. The hash lets identical uploads be spotted later.
func (te *TranscriptionEvent) SetAudioMetadata(samples []float32, sampleRate int) {
	te.AudioHash = hashAudio(samples)
	if sampleRate > 0 {
		te.AudioDurationMs = float64(len(samples)) / float64(sampleRate) * 1000.0
	}
	te.SampleRate = sampleRate
}

// SetResult records a successful transcription.
func (te *TranscriptionEvent) SetResult(text, language string, confidence float64, processingMs int64, rtf float64) {
	te.Text = text
	te.Language = language
	te.Confidence = confidence
	te.ProcessingTimeMs = processingMs
	te.RealTimeFactor = rtf
	te.Success = true
}

// SetError marks the event as failed.
func (te *TranscriptionEvent) SetError(err error) {
	te.Success = false
	te.ErrorMessage = err.Error()
	te.ProcessingTimeMs = time.Since(te.Timestamp).Milliseconds()
}

// IsValid performs basic validation before storage.
func (te *TranscriptionEvent) IsValid() error {
	if te.UUID == "" {
		return fmt.Errorf("UUID is required")
	}
	if te.SourceID == "" {
		return fmt.Errorf("sourceID is required")
	}
	if te.RequestID == "" {
		return fmt.Errorf("requestID is required")
	}
	if te.Timestamp.IsZero() {
		return fmt.Errorf("timestamp is required")
	}
	if te.Confidence < 0 || te.Confidence > 1 {
		return fmt.Errorf("confidence must be between 0 and 1")
	}
	return nil
}

// String returns a human-readable representation for logs.
func (te *TranscriptionEvent) String() string {
	return fmt.Sprintf("TranscriptionEvent{UUID: %s, SourceID: %s, Language: %s, Text: %q, Confidence: %.2f, Success: %t}",
		te.UUID, te.SourceID, te.Language, te.Text, te.Confidence, te.Success)
}

// hashAudio is a SHA-256 over the little-endian bit pattern of each
// sample, stable across runs and platforms.
func hashAudio(samples []float32) string {
	hasher := sha256.New()
	var word [4]byte
	for _, sample := range samples {
		binary.LittleEndian.PutUint32(word[:], math.Float32bits(sample))
		hasher.Write(word[:])
	}
	return hex.EncodeToString(hasher.Sum(nil))
}
