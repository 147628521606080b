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

	lru "github.com/hashicorp/golang-lru/v2"
)

type filterbankKey struct {
	nMels      int
	fftBins    int
	sampleRate int
	freqMin    float64
	freqMax    float64
}

// A filterbank is a pure function of its configuration, never of audio
// content, so computed matrices are memoized process-wide.
var filterbankCache, _ = lru.New[filterbankKey, [][]float64](8)

// HzToMel converts a frequency in Hz to the mel scale.
func HzToMel(hz float64) float64 {
	return 2595.0 * math.Log10(1.0+hz/700.0)
}

// MelToHz converts a mel-scale value back to Hz.
func MelToHz(mel float64) float64 {
	return 700.0 * (math.Pow(10.0, mel/2595.0) - 1.0)
}

// MelFilterbank returns an [nMels][fftBins] matrix of triangular filter
// weights spaced evenly on the mel scale between freqMin and freqMax.
// Each filter rises linearly from 0 at its left bin to 1 at its center bin
// and falls back to 0 at its right bin.
func MelFilterbank(nMels, fftBins, sampleRate int, freqMin, freqMax float64) [][]float64 {
	key := filterbankKey{nMels, fftBins, sampleRate, freqMin, freqMax}
	if fb, ok := filterbankCache.Get(key); ok {
		return fb
	}
	fb := buildMelFilterbank(nMels, fftBins, sampleRate, freqMin, freqMax)
	filterbankCache.Add(key, fb)
	return fb
}

func buildMelFilterbank(nMels, fftBins, sampleRate int, freqMin, freqMax float64) [][]float64 {
	fftSize := (fftBins - 1) * 2
	melMin := HzToMel(freqMin)
	melMax := HzToMel(freqMax)

	// nMels+2 evenly spaced mel points, converted back to FFT bin indices.
	bins := make([]int, nMels+2)
	for i := range bins {
		mel := melMin + float64(i)*(melMax-melMin)/float64(nMels+1)
		bin := int(math.Floor(float64(fftSize+1) * MelToHz(mel) / float64(sampleRate)))
		if bin > fftBins-1 {
			bin = fftBins - 1
		}
		bins[i] = bin
	}

	fb := make([][]float64, nMels)
	for m := 0; m < nMels; m++ {
		row := make([]float64, fftBins)
		left, center, right := bins[m], bins[m+1], bins[m+2]
		// Zero-width segments contribute nothing.
		if center > left {
			for b := left; b < center; b++ {
				row[b] = float64(b-left) / float64(center-left)
			}
		}
		if right > center {
			for b := center; b <= right && b < fftBins; b++ {
				row[b] = float64(right-b) / float64(right-center)
			}
		}
		fb[m] = row
	}
	return fb
}
