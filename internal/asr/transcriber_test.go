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

package asr

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/veristruct/voice-hub/internal/dsp"
)

// toneSecond returns one second of a steady 300 Hz tone so silence
// trimming leaves the buffer intact.
func toneSecond() []float32 {
	samples := make([]float32, dsp.SampleRate)
	for i := range samples {
		samples[i] = 0.5 * float32(math.Sin(2*math.Pi*300*float64(i)/float64(dsp.SampleRate)))
	}
	return samples
}

func TestTranscribeNotLoaded(t *testing.T) {
	tr := New()
	defer tr.Close()

	_, err := tr.Transcribe(context.Background(), toneSecond(), "en")
	if !errors.Is(err, ErrNotLoaded) {
		t.Fatalf("err = %v, want ErrNotLoaded", err)
	}
	if tr.Loaded() {
		t.Error("Loaded() = true for a fresh Transcriber")
	}
}

func TestTranscribeEmptyAudio(t *testing.T) {
	tr := NewWithEngine(newMockEngine(TokenEOT))
	defer tr.Close()

	if _, err := tr.Transcribe(context.Background(), nil, "en"); err == nil {
		t.Fatal("expected error for empty audio buffer")
	}
}

func TestTranscribePipeline(t *testing.T) {
	engine := newMockEngine(464, 1011, TokenEOT) // "ĠThe" "Ġgood"
	tr := NewWithEngine(engine)
	defer tr.Close()

	if !tr.Loaded() {
		t.Fatal("Loaded() = false with an injected engine")
	}

	result, err := tr.Transcribe(context.Background(), toneSecond(), "EN")
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}

	if result.Text != "The good" {
		t.Errorf("Text = %q, want %q", result.Text, "The good")
	}
	if result.Language != "en" {
		t.Errorf("Language = %q, want en", result.Language)
	}
	if result.Confidence <= 0 || result.Confidence > 1 {
		t.Errorf("Confidence = %v, want in (0, 1]", result.Confidence)
	}
	if result.AudioDurationMs != 1000 {
		t.Errorf("AudioDurationMs = %v, want 1000", result.AudioDurationMs)
	}
	if result.RealTimeFactor < 0 {
		t.Errorf("RealTimeFactor = %v, want >= 0", result.RealTimeFactor)
	}
	if !engine.state.destroyed {
		t.Error("encoder state not released after transcription")
	}
}

func TestTranscribeCanceledContext(t *testing.T) {
	engine := newMockEngine(262, TokenEOT)
	tr := NewWithEngine(engine)
	defer tr.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := tr.Transcribe(ctx, toneSecond(), "en")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if engine.calls != 0 {
		t.Errorf("decoder ran %d passes after cancellation", engine.calls)
	}
}

func TestLoadModelsRequiresPaths(t *testing.T) {
	tr := New()
	defer tr.Close()

	if err := tr.LoadModels(context.Background(), "", "decoder.onnx"); err == nil {
		t.Error("expected error for empty encoder path")
	}
	if err := tr.LoadModels(context.Background(), "encoder.onnx", ""); err == nil {
		t.Error("expected error for empty decoder path")
	}
}

func TestCloseIdempotent(t *testing.T) {
	engine := newMockEngine(TokenEOT)
	tr := NewWithEngine(engine)

	if err := tr.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := tr.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if engine.closed != 1 {
		t.Errorf("engine closed %d times, want 1", engine.closed)
	}
	if tr.Loaded() {
		t.Error("Loaded() = true after Close")
	}
}

func TestDetectVoiceActivityDelegates(t *testing.T) {
	tr := New()
	defer tr.Close()

	decisions := tr.DetectVoiceActivity(toneSecond(), 0)
	if len(decisions) != 50 {
		t.Fatalf("got %d frame decisions for 1 s at 20 ms frames, want 50", len(decisions))
	}
}
