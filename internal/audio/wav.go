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

// Package audio decodes uploaded audio into the normalized float sample
// form the speech pipeline consumes.
package audio

import (
	"bytes"
	"fmt"
	"io"

	"github.com/go-audio/wav"
)

// DecodeWAV reads a RIFF/WAV stream and returns mono float32 samples in
// [-1, 1] plus the stream's sample rate. Multi-channel audio is downmixed
// by averaging channels. The whole stream is buffered first because the
// WAV decoder needs to seek.
func DecodeWAV(r io.Reader) ([]float32, int, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, 0, fmt.Errorf("audio: read stream: %w", err)
	}

	dec := wav.NewDecoder(bytes.NewReader(raw))
	if !dec.IsValidFile() {
		return nil, 0, fmt.Errorf("audio: not a valid WAV file")
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("audio: decode PCM: %w", err)
	}
	if buf.Format == nil || buf.Format.NumChannels < 1 {
		return nil, 0, fmt.Errorf("audio: missing format information")
	}
	if len(buf.Data) == 0 {
		return nil, 0, fmt.Errorf("audio: stream contains no samples")
	}

	bitDepth := dec.BitDepth
	if bitDepth == 0 {
		bitDepth = 16
	}
	scale := float32(int(1) << (bitDepth - 1))

	channels := buf.Format.NumChannels
	frames := len(buf.Data) / channels
	samples := make([]float32, frames)
	for i := 0; i < frames; i++ {
		var sum float32
		for c := 0; c < channels; c++ {
			sum += float32(buf.Data[i*channels+c]) / scale
		}
		samples[i] = sum / float32(channels)
	}

	return samples, buf.Format.SampleRate, nil
}
