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

package dsp

import (
	"math"
	"testing"
)

// speechBurst builds 1 s of audio: silence, a loud 300 Hz burst in the
// middle, silence again.
func speechBurst() []float32 {
	samples := make([]float32, SampleRate)
	for i := 6400; i < 9600; i++ { // 0.4 s .. 0.6 s
		samples[i] = float32(0.8 * math.Sin(2*math.Pi*300*float64(i)/SampleRate))
	}
	return samples
}

func TestTrimSilenceSilentBuffer(t *testing.T) {
	// No frame rises above the threshold; the buffer must come back
	// unchanged rather than erroring.
	samples := make([]float32, SampleRate)
	trimmed := TrimSilence(samples)
	if len(trimmed) != len(samples) {
		t.Fatalf("silent buffer trimmed from %d to %d samples", len(samples), len(trimmed))
	}
}

func TestTrimSilenceShortBuffer(t *testing.T) {
	// Fewer than 3 analysis frames: analysis is meaningless, return as-is.
	samples := make([]float32, 640)
	if got := TrimSilence(samples); len(got) != 640 {
		t.Fatalf("short buffer trimmed to %d samples", len(got))
	}
}

func TestTrimSilenceBurst(t *testing.T) {
	samples := speechBurst()
	trimmed := TrimSilence(samples)

	if len(trimmed) >= len(samples) {
		t.Fatalf("burst buffer not trimmed: %d of %d samples", len(trimmed), len(samples))
	}
	// The 0.2 s burst plus one padding frame per side must survive.
	if len(trimmed) < 3200 {
		t.Fatalf("trim clipped the speech span: %d samples left", len(trimmed))
	}
	if len(trimmed) > 3200+4*320 {
		t.Errorf("trim kept too much silence: %d samples", len(trimmed))
	}

	var energy float64
	for _, s := range trimmed {
		energy += float64(s) * float64(s)
	}
	if energy == 0 {
		t.Error("trimmed span contains no signal")
	}
}

func TestDetectVoiceActivityFrameCount(t *testing.T) {
	tests := []struct {
		samples int
		frameMs int
		frames  int
	}{
		{0, 20, 0},
		{100, 20, 0},   // shorter than one 320-sample frame
		{320, 20, 1},
		{1000, 20, 3},
		{16000, 20, 50},
		{16000, 0, 50}, // default frame length
		{16000, 10, 100},
	}

	for _, tt := range tests {
		got := DetectVoiceActivity(make([]float32, tt.samples), tt.frameMs)
		if len(got) != tt.frames {
			t.Errorf("DetectVoiceActivity(%d samples, %d ms) = %d frames, want %d",
				tt.samples, tt.frameMs, len(got), tt.frames)
		}
	}
}

func TestDetectVoiceActivitySilence(t *testing.T) {
	flags := DetectVoiceActivity(make([]float32, SampleRate), 20)
	for i, speech := range flags {
		if speech {
			t.Fatalf("frame %d marked speech in silent audio", i)
		}
	}
}

func TestDetectVoiceActivityBurst(t *testing.T) {
	flags := DetectVoiceActivity(speechBurst(), 20)

	// Frames 20..29 carry the burst (0.4 s .. 0.6 s at 20 ms frames).
	for i := 20; i < 30; i++ {
		if !flags[i] {
			t.Errorf("burst frame %d not marked speech", i)
		}
	}
	// Leading frames, outside the hangover reach, stay silent.
	for i := 0; i < 18; i++ {
		if flags[i] {
			t.Errorf("leading silent frame %d marked speech", i)
		}
	}
	// Hangover extends the speech region by up to 2 frames on each side.
	if !flags[19] {
		t.Error("hangover should cover frame 19")
	}
}
