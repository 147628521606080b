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

//go:build onnx

package inference

import (
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

var (
	ortInitOnce sync.Once
	ortInitErr  error
)

func initRuntime() error {
	ortInitOnce.Do(func() {
		ortInitErr = ort.InitializeEnvironment()
	})
	return ortInitErr
}

// onnxEngine holds one session per model artifact. A single mutex guards
// every inference call and disposal; concurrent transcriptions serialize
// here rather than sharing the sessions.
type onnxEngine struct {
	mu      sync.Mutex
	encoder *ort.DynamicAdvancedSession
	decoder *ort.DynamicAdvancedSession
	closed  bool
}

func open(encoderPath, decoderPath string) (Engine, error) {
	if err := initRuntime(); err != nil {
		return nil, fmt.Errorf("inference: initialize onnxruntime: %w", err)
	}

	encoder, err := ort.NewDynamicAdvancedSession(encoderPath,
		[]string{"mel"}, []string{"encoder_output"}, nil)
	if err != nil {
		return nil, fmt.Errorf("inference: load encoder %q: %w", encoderPath, err)
	}

	decoder, err := ort.NewDynamicAdvancedSession(decoderPath,
		[]string{"tokens", "encoder_output"}, []string{"logits"}, nil)
	if err != nil {
		encoder.Destroy()
		return nil, fmt.Errorf("inference: load decoder %q: %w", decoderPath, err)
	}

	return &onnxEngine{encoder: encoder, decoder: decoder}, nil
}

type onnxState struct {
	tensor *ort.Tensor[float32]
}

func (s *onnxState) Destroy() error {
	if s.tensor == nil {
		return nil
	}
	err := s.tensor.Destroy()
	s.tensor = nil
	return err
}

func (e *onnxEngine) Encode(mel [][]float64) (State, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, ErrClosed
	}
	if len(mel) == 0 || len(mel[0]) == 0 {
		return nil, fmt.Errorf("inference: empty spectrogram")
	}

	bands := len(mel)
	frames := len(mel[0])
	flat := make([]float32, bands*frames)
	for m := 0; m < bands; m++ {
		for f := 0; f < frames; f++ {
			flat[m*frames+f] = float32(mel[m][f])
		}
	}

	input, err := ort.NewTensor(ort.NewShape(1, int64(bands), int64(frames)), flat)
	if err != nil {
		return nil, fmt.Errorf("inference: mel tensor: %w", err)
	}
	defer input.Destroy()

	outputs := []ort.Value{nil}
	if err := e.encoder.Run([]ort.Value{input}, outputs); err != nil {
		return nil, fmt.Errorf("inference: encoder run: %w", err)
	}
	out, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		outputs[0].Destroy()
		return nil, fmt.Errorf("inference: unexpected encoder output type %T", outputs[0])
	}
	return &onnxState{tensor: out}, nil
}

func (e *onnxEngine) Decode(tokens []int64, state State) ([]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, ErrClosed
	}
	st, ok := state.(*onnxState)
	if !ok || st.tensor == nil {
		return nil, fmt.Errorf("inference: invalid encoder state")
	}
	if len(tokens) == 0 {
		return nil, fmt.Errorf("inference: empty token sequence")
	}

	ids := make([]int64, len(tokens))
	copy(ids, tokens)
	input, err := ort.NewTensor(ort.NewShape(1, int64(len(ids))), ids)
	if err != nil {
		return nil, fmt.Errorf("inference: token tensor: %w", err)
	}
	defer input.Destroy()

	outputs := []ort.Value{nil}
	if err := e.decoder.Run([]ort.Value{input, st.tensor}, outputs); err != nil {
		return nil, fmt.Errorf("inference: decoder run: %w", err)
	}
	logits, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		outputs[0].Destroy()
		return nil, fmt.Errorf("inference: unexpected decoder output type %T", outputs[0])
	}
	defer logits.Destroy()

	// Logits come back as [1, seqLen, vocab]; only the last position
	// matters for greedy decoding.
	shape := logits.GetShape()
	data := logits.GetData()
	vocab := int(shape[len(shape)-1])
	if vocab <= 0 || len(data) < vocab {
		return nil, fmt.Errorf("inference: malformed logits shape %v", shape)
	}
	last := make([]float32, vocab)
	copy(last, data[len(data)-vocab:])
	return last, nil
}

func (e *onnxEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true

	var firstErr error
	if e.encoder != nil {
		if err := e.encoder.Destroy(); err != nil {
			firstErr = err
		}
		e.encoder = nil
	}
	if e.decoder != nil {
		if err := e.decoder.Destroy(); err != nil && firstErr == nil {
			firstErr = err
		}
		e.decoder = nil
	}
	return firstErr
}
