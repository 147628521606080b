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
	"math"

	"github.com/veristruct/voice-hub/internal/asr/inference"
)

// maxDecodeSteps caps autoregressive generation per utterance.
const maxDecodeSteps = 448

// decodeStep is the outcome of one greedy step. ok is false when the
// engine failed and the loop should stop with what it has.
type decodeStep struct {
	token      int
	confidence float64
	ok         bool
}

// decodeOutcome carries the full token sequence (control tokens included)
// and the averaged confidence over text tokens.
type decodeOutcome struct {
	tokens     []int
	confidence float64
}

// runDecodeLoop drives greedy autoregressive decoding: the sequence is
// seeded with start-of-transcript, language and task control tokens, then
// grows one arg-max token per decoder pass until end-of-transcript or the
// step cap. An engine failure mid-stream stops the loop and keeps the
// tokens produced so far; cancellation aborts the call with ctx.Err() and
// no partial result.
func runDecodeLoop(ctx context.Context, engine inference.Engine, state inference.State, language string) (*decodeOutcome, error) {
	tokens := []int{TokenSOT, GetLanguageToken(language), TokenTranscribe}
	var confidences []float64

	for step := 0; step < maxDecodeSteps; step++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		st := nextToken(engine, state, tokens)
		if !st.ok {
			break
		}
		if st.token == TokenEOT {
			break
		}

		tokens = append(tokens, st.token)
		if st.token < specialTokenBoundary {
			confidences = append(confidences, st.confidence)
		}
	}

	return &decodeOutcome{tokens: tokens, confidence: meanConfidence(confidences)}, nil
}

// nextToken runs one decoder pass and picks the arg-max token.
func nextToken(engine inference.Engine, state inference.State, tokens []int) decodeStep {
	ids := make([]int64, len(tokens))
	for i, t := range tokens {
		ids[i] = int64(t)
	}

	logits, err := engine.Decode(ids, state)
	if err != nil || len(logits) == 0 {
		return decodeStep{}
	}

	best := 0
	maxLogit := logits[0]
	for i, l := range logits {
		if l > maxLogit {
			maxLogit = l
			best = i
		}
	}

	// Stable softmax probability of the arg-max token: since
	// exp(max-max) = 1, the probability collapses to the reciprocal of
	// the normalization sum.
	var sum float64
	for _, l := range logits {
		sum += math.Exp(float64(l - maxLogit))
	}

	return decodeStep{token: best, confidence: 1.0 / sum, ok: true}
}

func meanConfidence(confidences []float64) float64 {
	if len(confidences) == 0 {
		return 0
	}
	var total float64
	for _, c := range confidences {
		total += c
	}
	return total / float64(len(confidences))
}
