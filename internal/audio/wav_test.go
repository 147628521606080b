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

package audio

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// writeWAV encodes 16-bit PCM to a temp file and returns its bytes. The
// encoder needs a WriteSeeker, so a file stands in for a buffer.
func writeWAV(t *testing.T, sampleRate, channels int, data []int) []byte {
	t.Helper()

	path := filepath.Join(t.TempDir(), "fixture.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create fixture: %v", err)
	}

	enc := wav.NewEncoder(f, sampleRate, 16, channels, 1)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("encode fixture: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("close encoder: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close fixture: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	return raw
}

func TestDecodeWAVMono(t *testing.T) {
	data := make([]int, 1600)
	for i := range data {
		data[i] = int(16000 * math.Sin(2*math.Pi*440*float64(i)/16000))
	}
	raw := writeWAV(t, 16000, 1, data)

	samples, rate, err := DecodeWAV(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("DecodeWAV: %v", err)
	}
	if rate != 16000 {
		t.Errorf("sample rate = %d, want 16000", rate)
	}
	if len(samples) != len(data) {
		t.Fatalf("got %d samples, want %d", len(samples), len(data))
	}
	for i, s := range samples {
		want := float32(data[i]) / 32768.0
		if math.Abs(float64(s-want)) > 1e-6 {
			t.Fatalf("sample %d = %v, want %v", i, s, want)
		}
	}
}

func TestDecodeWAVStereoDownmix(t *testing.T) {
	// Interleaved L/R with opposite signs cancels to silence.
	data := make([]int, 800)
	for i := 0; i < len(data); i += 2 {
		data[i] = 8000
		data[i+1] = -8000
	}
	raw := writeWAV(t, 16000, 2, data)

	samples, _, err := DecodeWAV(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("DecodeWAV: %v", err)
	}
	if len(samples) != len(data)/2 {
		t.Fatalf("got %d samples, want %d frames", len(samples), len(data)/2)
	}
	for i, s := range samples {
		if math.Abs(float64(s)) > 1e-6 {
			t.Fatalf("frame %d = %v, want 0 after downmix", i, s)
		}
	}
}

func TestDecodeWAVRejectsGarbage(t *testing.T) {
	_, _, err := DecodeWAV(strings.NewReader("definitely not a wav file"))
	if err == nil {
		t.Fatal("expected error for non-WAV input")
	}
}

func TestDecodeWAVRejectsEmpty(t *testing.T) {
	if _, _, err := DecodeWAV(bytes.NewReader(nil)); err == nil {
		t.Fatal("expected error for empty input")
	}
}
