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

// Package dsp implements the audio front end of the speech pipeline:
// pre-emphasis, windowed STFT over a radix-2 FFT, mel filterbank
// projection, log-mel normalization, silence trimming and voice activity
// detection. All processing assumes mono 16 kHz input; resampling is the
// caller's responsibility.
package dsp

import "math"

// Fixed front-end parameters shared with the exported speech model.
const (
	SampleRate = 16000

	NumMelBands = 80

	windowSize    = 400 // 25 ms Hann window
	hopSize       = 160 // 10 ms hop
	freqMin       = 0.0
	freqMax       = 8000.0
	preEmphasis   = 0.97
	logFloor      = 1e-10
	stdDevEpsilon = 1e-6
)

// ComputeLogMel transforms raw samples into an unnormalized log-mel
// spectrogram indexed [melBand][frame]. The frame count is always at
// least 1; audio shorter than one window is zero-padded.
func ComputeLogMel(samples []float32) [][]float64 {
	emphasized := preEmphasize(samples)

	fftSize := nextPowerOfTwo(windowSize)
	fftBins := fftSize/2 + 1

	numFrames := (len(emphasized)-windowSize)/hopSize + 1
	if numFrames < 1 {
		numFrames = 1
	}

	window := hannWindow(windowSize)
	fb := MelFilterbank(NumMelBands, fftBins, SampleRate, freqMin, freqMax)

	spec := make([][]float64, NumMelBands)
	for m := range spec {
		spec[m] = make([]float64, numFrames)
	}

	buf := make([]complex128, fftSize)
	power := make([]float64, fftBins)

	for f := 0; f < numFrames; f++ {
		start := f * hopSize

		// Window the frame, zero-padding past the buffer end and up to
		// the FFT length.
		for i := 0; i < fftSize; i++ {
			var s float64
			if i < windowSize && start+i < len(emphasized) {
				s = emphasized[start+i] * window[i]
			}
			buf[i] = complex(s, 0)
		}

		// fftSize is a power of two by construction.
		fftInPlace(buf, false)

		for k := 0; k < fftBins; k++ {
			re := real(buf[k])
			im := imag(buf[k])
			power[k] = re*re + im*im
		}

		for m := 0; m < NumMelBands; m++ {
			var sum float64
			row := fb[m]
			for k := 0; k < fftBins; k++ {
				sum += row[k] * power[k]
			}
			spec[m][f] = math.Log(math.Max(sum, logFloor))
		}
	}

	return spec
}

// NormalizeMelSpectrogram normalizes each mel band to zero mean and unit
// variance across frames, in place. Bands whose standard deviation falls
// below the epsilon guard are only mean-centered. Spectrograms with fewer
// than 2 frames are left untouched.
func NormalizeMelSpectrogram(spec [][]float64) {
	if len(spec) == 0 || len(spec[0]) < 2 {
		return
	}
	numFrames := len(spec[0])

	for m := range spec {
		band := spec[m]

		var mean float64
		for _, v := range band {
			mean += v
		}
		mean /= float64(numFrames)

		var variance float64
		for _, v := range band {
			d := v - mean
			variance += d * d
		}
		variance /= float64(numFrames)
		stdDev := math.Sqrt(variance)

		scale := 1.0
		if stdDev > stdDevEpsilon {
			scale = 1.0 / stdDev
		}
		for f := range band {
			band[f] = (band[f] - mean) * scale
		}
	}
}

// ComputeMelSpectrogram runs the full front end: log-mel extraction
// followed by per-band normalization. The result is ready to flatten into
// a [1, 80, frames] encoder input tensor.
func ComputeMelSpectrogram(samples []float32) [][]float64 {
	spec := ComputeLogMel(samples)
	NormalizeMelSpectrogram(spec)
	return spec
}

// preEmphasize applies the fixed 0.97 pre-emphasis filter.
func preEmphasize(samples []float32) []float64 {
	out := make([]float64, len(samples))
	if len(samples) == 0 {
		return out
	}
	out[0] = float64(samples[0])
	for i := 1; i < len(samples); i++ {
		out[i] = float64(samples[i]) - preEmphasis*float64(samples[i-1])
	}
	return out
}

func hannWindow(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 0.5 * (1.0 - math.Cos(2.0*math.Pi*float64(i)/float64(n-1)))
	}
	return w
}

func nextPowerOfTwo(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
