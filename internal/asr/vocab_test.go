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

import "testing"

func TestDecodeTokens(t *testing.T) {
	tests := []struct {
		name string
		ids  []int
		want string
	}{
		{
			name: "control tokens only",
			ids:  []int{TokenSOT, 50259, TokenTranscribe, TokenEOT},
			want: "",
		},
		{
			name: "byte fallback",
			ids:  []int{104, 105},
			want: "hi",
		},
		{
			name: "word boundary markers become spaces",
			ids:  []int{464, 1011}, // "ĠThe" "Ġgood"
			want: "The good",
		},
		{
			name: "mixed bytes and subwords",
			ids:  []int{464, 292}, // "ĠThe" "is"
			want: "Theis",
		},
		{
			name: "whitespace collapses and trims",
			ids:  []int{32, 32, 104, 32, 32, 105, 32},
			want: "h i",
		},
		{
			name: "unknown and negative ids are dropped",
			ids:  []int{-5, 49999, 104},
			want: "h",
		},
		{
			name: "empty input",
			ids:  nil,
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DecodeTokens(tt.ids); got != tt.want {
				t.Errorf("DecodeTokens(%v) = %q, want %q", tt.ids, got, tt.want)
			}
		})
	}
}

func TestDecodeTokensDeterministic(t *testing.T) {
	ids := []int{TokenSOT, 50259, TokenTranscribe, 464, 1011, TokenEOT}
	first := DecodeTokens(ids)
	for i := 0; i < 10; i++ {
		if got := DecodeTokens(ids); got != first {
			t.Fatalf("DecodeTokens not deterministic: %q vs %q", got, first)
		}
	}
}
