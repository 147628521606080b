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

import "math"

const (
	// DefaultVADFrameMs is the analysis frame length used when the caller
	// does not specify one.
	DefaultVADFrameMs = 20

	trimThresholdDb  = -40.0
	noiseFloorFrames = 5
	hangoverFrames   = 2
)

// TrimSilence strips leading and trailing silence from samples, padding
// the detected speech span by one frame on each side so onsets are not
// clipped. If the buffer is too short to analyze, or the trim would not
// shrink it, the original buffer is returned unchanged.
func TrimSilence(samples []float32) []float32 {
	frameLen := SampleRate * DefaultVADFrameMs / 1000
	numFrames := len(samples) / frameLen
	if numFrames < 3 {
		return samples
	}

	energies := frameEnergies(samples, frameLen, numFrames)

	peak := 0.0
	for _, e := range energies {
		if e > peak {
			peak = e
		}
	}
	if peak <= 0 {
		return samples
	}

	// Fixed offset below the peak frame's energy, in dB.
	threshold := peak * math.Pow(10.0, trimThresholdDb/10.0)

	first, last := -1, -1
	for i, e := range energies {
		if e >= threshold {
			first = i
			break
		}
	}
	for i := numFrames - 1; i >= 0; i-- {
		if energies[i] >= threshold {
			last = i
			break
		}
	}
	if first < 0 || last < first {
		return samples
	}

	start := (first - 1) * frameLen
	if start < 0 {
		start = 0
	}
	end := (last + 2) * frameLen
	if end > len(samples) {
		end = len(samples)
	}
	if end-start >= len(samples) {
		return samples
	}
	return samples[start:end]
}

// DetectVoiceActivity classifies each frame of samples as speech or
// non-speech using per-frame energy and zero-crossing rate against
// adaptive noise-floor thresholds, with a 2-frame hangover so continuous
// speech does not flicker. frameMs <= 0 selects the 20 ms default. The
// result has exactly len(samples)/frameSamples entries.
func DetectVoiceActivity(samples []float32, frameMs int) []bool {
	if frameMs <= 0 {
		frameMs = DefaultVADFrameMs
	}
	frameLen := SampleRate * frameMs / 1000
	numFrames := len(samples) / frameLen
	if numFrames == 0 {
		return []bool{}
	}

	energies := frameEnergies(samples, frameLen, numFrames)
	zcrs := frameZeroCrossings(samples, frameLen, numFrames)

	// The first frames are assumed non-speech and set the noise floor.
	floor := noiseFloorFrames
	if floor > numFrames {
		floor = numFrames
	}
	var noiseEnergy, noiseZcr float64
	for i := 0; i < floor; i++ {
		noiseEnergy += energies[i]
		noiseZcr += zcrs[i]
	}
	noiseEnergy /= float64(floor)
	noiseZcr /= float64(floor)

	peak := 0.0
	for _, e := range energies {
		if e > peak {
			peak = e
		}
	}

	energyThreshold := math.Max(10.0*noiseEnergy, 1e-4*peak)
	zcrLow := math.Max(5.0, noiseZcr/2.0)
	zcrHigh := math.Max(float64(frameLen)/4.0, noiseZcr*3.0)

	raw := make([]bool, numFrames)
	for i := 0; i < numFrames; i++ {
		speechLikeZcr := zcrs[i] >= zcrLow && zcrs[i] <= zcrHigh
		raw[i] = energies[i] > energyThreshold ||
			(energies[i] > 0.3*energyThreshold && speechLikeZcr)
	}

	// Hangover: frames within 2 of a speech frame are speech too.
	out := make([]bool, numFrames)
	for i, speech := range raw {
		if !speech {
			continue
		}
		lo := i - hangoverFrames
		if lo < 0 {
			lo = 0
		}
		hi := i + hangoverFrames
		if hi > numFrames-1 {
			hi = numFrames - 1
		}
		for j := lo; j <= hi; j++ {
			out[j] = true
		}
	}
	return out
}

// frameEnergies returns the mean squared sample value per frame.
func frameEnergies(samples []float32, frameLen, numFrames int) []float64 {
	energies := make([]float64, numFrames)
	for f := 0; f < numFrames; f++ {
		start := f * frameLen
		var sum float64
		for i := start; i < start+frameLen; i++ {
			s := float64(samples[i])
			sum += s * s
		}
		energies[f] = sum / float64(frameLen)
	}
	return energies
}

// frameZeroCrossings counts sign changes per frame.
func frameZeroCrossings(samples []float32, frameLen, numFrames int) []float64 {
	zcrs := make([]float64, numFrames)
	for f := 0; f < numFrames; f++ {
		start := f * frameLen
		count := 0
		for i := start + 1; i < start+frameLen; i++ {
			if (samples[i-1] < 0) != (samples[i] < 0) {
				count++
			}
		}
		zcrs[f] = float64(count)
	}
	return zcrs
}
