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

func TestGetLanguageToken(t *testing.T) {
	tests := []struct {
		code string
		want int
	}{
		{"en", 50259},
		{"zh", 50260},
		{"de", 50261},
		{"fr", 50265},
		{"sw", 50318},
		{" EN ", 50259}, // case and whitespace insensitive
		{"xx", 50259},   // unknown falls back to English
		{"", 50259},
	}

	for _, tt := range tests {
		if got := GetLanguageToken(tt.code); got != tt.want {
			t.Errorf("GetLanguageToken(%q) = %d, want %d", tt.code, got, tt.want)
		}
	}
}

func TestNormalizeLanguage(t *testing.T) {
	tests := []struct {
		code string
		want string
	}{
		{"fr", "fr"},
		{"FR", "fr"},
		{" ja ", "ja"},
		{"xx", "en"},
		{"", "en"},
	}

	for _, tt := range tests {
		if got := NormalizeLanguage(tt.code); got != tt.want {
			t.Errorf("NormalizeLanguage(%q) = %q, want %q", tt.code, got, tt.want)
		}
	}
}

func TestLanguageTokensAreConsecutive(t *testing.T) {
	seen := make(map[int]string, len(languageCodes))
	for _, code := range languageCodes {
		tok := GetLanguageToken(code)
		if prev, dup := seen[tok]; dup {
			t.Fatalf("token %d assigned to both %q and %q", tok, prev, code)
		}
		seen[tok] = code
		if tok < languageTokenBase || tok >= languageTokenBase+len(languageCodes) {
			t.Errorf("token %d for %q outside language token range", tok, code)
		}
	}
}
