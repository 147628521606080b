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

// Package inference wraps the encoder and decoder forward passes of the
// speech model. It owns tensor shaping only; the matrix math happens in
// the external runtime behind the Engine interface.
package inference

import "errors"

// ErrClosed is returned when inference is attempted after Close.
var ErrClosed = errors.New("inference: engine closed")

// State is the opaque encoder output carried across decode steps. It is
// owned by the transcription call that produced it and must be destroyed
// when decoding finishes.
type State interface {
	Destroy() error
}

// Engine runs encoder and decoder forward passes. Implementations must
// serialize Encode, Decode and Close against each other; callers may hold
// a State across many Decode calls.
type Engine interface {
	// Encode runs the encoder over a normalized [melBands][frames]
	// log-mel spectrogram.
	Encode(mel [][]float64) (State, error)

	// Decode runs the decoder over the full token history and the encoder
	// output, returning the logits for the last position only.
	Decode(tokens []int64, state State) ([]float32, error)

	// Close releases the model sessions. Safe to call multiple times.
	Close() error
}

// Open loads encoder and decoder model artifacts from disk. The real
// backend is compiled in with -tags onnx; the default build returns an
// error so the rest of the pipeline stays testable without the runtime.
func Open(encoderPath, decoderPath string) (Engine, error) {
	return open(encoderPath, decoderPath)
}
