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

import "strings"

// languageTokenBase is the control token of the first language; each
// following language occupies the next consecutive ID, matching the
// ordering the model was exported with.
const languageTokenBase = 50259

var languageCodes = []string{
	"en", "zh", "de", "es", "ru", "ko", "fr", "ja", "pt", "tr",
	"pl", "ca", "nl", "ar", "sv", "it", "id", "hi", "fi", "vi",
	"he", "uk", "el", "ms", "cs", "ro", "da", "hu", "ta", "no",
	"th", "ur", "hr", "bg", "lt", "la", "mi", "ml", "cy", "sk",
	"te", "fa", "lv", "bn", "sr", "az", "sl", "kn", "et", "mk",
	"br", "eu", "is", "hy", "ne", "mn", "bs", "kk", "sq", "sw",
}

var languageTokens = func() map[string]int {
	m := make(map[string]int, len(languageCodes))
	for i, code := range languageCodes {
		m[code] = languageTokenBase + i
	}
	return m
}()

// GetLanguageToken returns the control token for an ISO-639-1 style
// language code. Unknown codes fall back to English.
func GetLanguageToken(code string) int {
	if tok, ok := languageTokens[normalize(code)]; ok {
		return tok
	}
	return languageTokens["en"]
}

// NormalizeLanguage echoes a recognized code back in canonical form, or
// "en" for anything unknown.
func NormalizeLanguage(code string) string {
	c := normalize(code)
	if _, ok := languageTokens[c]; ok {
		return c
	}
	return "en"
}

func normalize(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}
