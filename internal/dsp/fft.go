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
	"fmt"
	"math"
)

// FFT computes the forward discrete Fourier transform of buf in place
// using the iterative radix-2 decimation-in-time algorithm. The buffer
// length must be a power of two.
func FFT(buf []complex128) error {
	if err := checkFFTLength(len(buf)); err != nil {
		return err
	}
	fftInPlace(buf, false)
	return nil
}

// IFFT computes the inverse transform of buf in place and scales every
// sample by 1/n. The buffer length must be a power of two.
func IFFT(buf []complex128) error {
	if err := checkFFTLength(len(buf)); err != nil {
		return err
	}
	fftInPlace(buf, true)
	n := complex(float64(len(buf)), 0)
	for i := range buf {
		buf[i] /= n
	}
	return nil
}

func checkFFTLength(n int) error {
	if n < 1 || n&(n-1) != 0 {
		return fmt.Errorf("dsp: fft buffer length %d is not a power of two", n)
	}
	return nil
}

// fftInPlace assumes len(buf) is a power of two.
func fftInPlace(buf []complex128, inverse bool) {
	n := len(buf)

	// Bit-reversal permutation.
	for i, j := 1, 0; i < n; i++ {
		bit := n >> 1
		for ; j&bit != 0; bit >>= 1 {
			j ^= bit
		}
		j |= bit
		if i < j {
			buf[i], buf[j] = buf[j], buf[i]
		}
	}

	sign := -2.0
	if inverse {
		sign = 2.0
	}

	// Butterfly stages, span doubling from 2 up to n.
	for length := 2; length <= n; length <<= 1 {
		angle := sign * 2.0 * math.Pi / float64(length)
		wLen := complex(math.Cos(angle), math.Sin(angle))
		half := length / 2
		for start := 0; start < n; start += length {
			w := complex(1, 0)
			for k := 0; k < half; k++ {
				u := buf[start+k]
				v := buf[start+k+half] * w
				buf[start+k] = u + v
				buf[start+k+half] = u - v
				w *= wLen
			}
		}
	}
}
