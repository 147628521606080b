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

// Package asr implements on-device speech-to-text: the audio front end
// from internal/dsp feeding an encoder/decoder speech model through
// internal/asr/inference, with greedy token generation and
// detokenization.
package asr

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/veristruct/voice-hub/internal/asr/inference"
	"github.com/veristruct/voice-hub/internal/dsp"
	"github.com/veristruct/voice-hub/internal/logging"
)

// ErrNotLoaded is returned by Transcribe before LoadModels has succeeded.
var ErrNotLoaded = errors.New("asr: model not loaded")

// TranscriptionResult bundles the output of one transcription call.
type TranscriptionResult struct {
	Text             string  `json:"text"`
	Language         string  `json:"language"`
	Confidence       float64 `json:"confidence"`
	ProcessingTimeMs int64   `json:"processing_time_ms"`
	AudioDurationMs  float64 `json:"audio_duration_ms"`
	// RealTimeFactor is processing time over audio time; values below
	// 1.0 mean faster than real time.
	RealTimeFactor float64 `json:"real_time_factor"`
}

// Transcriber is the speech component. It owns the model engine and runs
// the full pipeline: silence trim, log-mel extraction, encoder inference,
// greedy decoding, detokenization. One lock serializes transcription and
// disposal; concurrent requests queue at this boundary rather than
// sharing the inference sessions.
type Transcriber struct {
	mu     sync.Mutex
	engine inference.Engine
}

// New returns an unloaded Transcriber. LoadModels must succeed before
// Transcribe is accepted.
func New() *Transcriber {
	return &Transcriber{}
}

// NewWithEngine returns a Transcriber bound to an already-open engine.
func NewWithEngine(engine inference.Engine) *Transcriber {
	return &Transcriber{engine: engine}
}

// LoadModels opens the encoder and decoder model artifacts. A failed or
// canceled load leaves the component unloaded.
func (t *Transcriber) LoadModels(ctx context.Context, encoderPath, decoderPath string) error {
	if encoderPath == "" || decoderPath == "" {
		return fmt.Errorf("asr: encoder and decoder model paths are required")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	engine, err := inference.Open(encoderPath, decoderPath)
	if err != nil {
		return fmt.Errorf("asr: load models: %w", err)
	}
	if err := ctx.Err(); err != nil {
		engine.Close()
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.engine != nil {
		t.engine.Close()
	}
	t.engine = engine

	logging.LogTranscription("Speech models loaded",
		zap.String("encoder", encoderPath),
		zap.String("decoder", decoderPath))
	return nil
}

// Loaded reports whether models are ready for transcription.
func (t *Transcriber) Loaded() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.engine != nil
}

// Transcribe converts mono 16 kHz samples to text. An optional language
// code selects the language control token; unknown codes fall back to
// English. The call is CPU-bound and serialized with other transcriptions;
// cancellation is honored between decoder steps and aborts without a
// partial result.
func (t *Transcriber) Transcribe(ctx context.Context, samples []float32, language string) (*TranscriptionResult, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("asr: audio buffer is empty")
	}

	start := time.Now()
	lang := NormalizeLanguage(language)

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.engine == nil {
		return nil, ErrNotLoaded
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	trimmed := dsp.TrimSilence(samples)
	if len(trimmed) < len(samples) {
		logging.LogAudioProcessing("silence_trim",
			zap.Int("samples_in", len(samples)),
			zap.Int("samples_out", len(trimmed)))
	}

	mel := dsp.ComputeMelSpectrogram(trimmed)

	state, err := t.engine.Encode(mel)
	if err != nil {
		return nil, fmt.Errorf("asr: encoder inference: %w", err)
	}
	defer func() {
		if derr := state.Destroy(); derr != nil {
			logging.LogWarn("Failed to release encoder state", zap.Error(derr))
		}
	}()

	outcome, err := runDecodeLoop(ctx, t.engine, state, lang)
	if err != nil {
		return nil, err
	}

	text := DecodeTokens(outcome.tokens)

	processingMs := float64(time.Since(start)) / float64(time.Millisecond)
	audioMs := float64(len(samples)) / float64(dsp.SampleRate) * 1000.0
	rtf := 0.0
	if audioMs > 0 {
		rtf = processingMs / audioMs
	}

	result := &TranscriptionResult{
		Text:             text,
		Language:         lang,
		Confidence:       outcome.confidence,
		ProcessingTimeMs: int64(processingMs),
		AudioDurationMs:  audioMs,
		RealTimeFactor:   rtf,
	}

	logging.LogTranscription("Transcription complete",
		zap.String("language", lang),
		zap.Float64("confidence", result.Confidence),
		zap.Int64("processing_ms", result.ProcessingTimeMs),
		zap.Float64("real_time_factor", result.RealTimeFactor))
	return result, nil
}

// DetectVoiceActivity classifies each frame of samples as speech or
// non-speech. frameMs <= 0 selects the 20 ms default. No loaded model is
// required.
func (t *Transcriber) DetectVoiceActivity(samples []float32, frameMs int) []bool {
	return dsp.DetectVoiceActivity(samples, frameMs)
}

// TrimSilence strips leading and trailing silence; see dsp.TrimSilence.
func (t *Transcriber) TrimSilence(samples []float32) []float32 {
	return dsp.TrimSilence(samples)
}

// Close releases the model sessions. Safe to call repeatedly; it shares
// the transcription lock so disposal cannot race an inference call.
func (t *Transcriber) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.engine == nil {
		return nil
	}
	err := t.engine.Close()
	t.engine = nil
	return err
}
