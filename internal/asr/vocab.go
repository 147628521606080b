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
	"strings"
	"sync"
)

// Token layout shared with the exported model.
const (
	// TokenEOT ends a transcript; it is also the boundary above which
	// tokens are control tokens and never emitted as text.
	TokenEOT = 50257
	// TokenSOT starts every transcript.
	TokenSOT = 50258
	// TokenTranscribe selects the transcription task.
	TokenTranscribe = 50359

	specialTokenBoundary = TokenEOT
)

const (
	wordBoundaryMarker = "Ġ" // Ġ in byte-level BPE vocabularies
	newlineMarker      = "Ċ" // Ċ
)

var (
	vocabOnce  sync.Once
	vocabTable map[int]string
)

// vocabulary returns the process-wide token table. It is built exactly
// once and read-only afterwards, so concurrent detokenization needs no
// locking.
func vocabulary() map[int]string {
	vocabOnce.Do(func() {
		vocabTable = buildVocabulary()
	})
	return vocabTable
}

// DecodeTokens maps token IDs to text. Control tokens at or above the
// special-token boundary are dropped, IDs 0-255 fall back to their raw
// byte value, and everything else goes through the subword table. Word
// boundary markers become spaces, runs of whitespace collapse to single
// spaces and the result is trimmed.
func DecodeTokens(ids []int) string {
	table := vocabulary()

	var b strings.Builder
	for _, id := range ids {
		switch {
		case id < 0 || id >= specialTokenBoundary:
			// control token, never text
		case id < 256:
			b.WriteByte(byte(id))
		default:
			if fragment, ok := table[id]; ok {
				b.WriteString(fragment)
			}
		}
	}

	text := b.String()
	text = strings.ReplaceAll(text, wordBoundaryMarker, " ")
	text = strings.ReplaceAll(text, newlineMarker, "\n")
	return strings.Join(strings.Fields(text), " ")
}

// buildVocabulary assembles the id → fragment table.
//
// This is an approximation vocabulary of frequent English subwords and
// punctuation in byte-level BPE form, not the model's trained BPE table;
// IDs without an entry decode to nothing. Exact text fidelity depends on
// how closely this table matches the real tokenizer.
func buildVocabulary() map[int]string {
	return map[int]string{
		257: "Ġa", 262: "Ġthe", 263: "Ġ\"", 264: "es", 266: "ing",
		270: "er", 272: "on", 273: "Ġan", 275: "en", 278: "at",
		284: "Ġto", 286: "Ġof", 287: "Ġin", 290: "Ġand", 291: "ed",
		292: "is", 303: "ion", 306: "Ġs", 307: "Ġw", 314: "ĠI",
		318: "Ġis", 319: "Ġon", 326: "Ġthat", 329: "Ġfor", 339: "Ġhe",
		340: "Ġit", 345: "Ġyou", 351: "Ġwith", 355: "Ġas", 356: "Ġbe",
		357: "ly", 366: "Ġst", 373: "Ġwas", 379: "Ġat", 389: "Ġare",
		393: "ent", 407: "Ġnot", 416: "Ġby", 422: "Ġhad", 423: "Ġhave",
		428: "Ġthis", 434: "Ġor", 447: "Ġso", 460: "ation", 464: "ĠThe",
		465: "Ġhis", 466: "Ġdo", 467: "Ġfrom", 470: "Ġan", 475: "Ġbut",
		484: "Ġwe", 502: "Ġme", 508: "Ġall", 510: "Ġwhat", 511: "Ġup",
		531: "Ġsaid", 534: "Ġher", 547: "Ġwere", 550: "Ġout", 554: "Ġthere",
		561: "Ġcan", 588: "Ġso", 606: "Ġif", 612: "Ġabout", 616: "Ġmy",
		618: "Ġone", 621: "Ġwill", 645: "Ġwhich", 649: "Ġwhen", 673: "Ġshe",
		683: "Ġtheir", 703: "Ġwould", 714: "Ġbeen", 734: "Ġtime", 749: "Ġhow",
		766: "Ġmore", 772: "Ġthey", 783: "Ġlike", 788: "Ġno", 810: "Ġthem",
		821: "Ġsome", 832: "Ġpeople", 845: "Ġinto", 851: "Ġthan", 866: "Ġother",
		880: "Ġtwo", 893: "Ġover", 905: "Ġknow", 922: "Ġjust", 938: "Ġfirst",
		949: "Ġyour", 959: "Ġnow", 968: "Ġget", 983: "Ġbecause", 994: "Ġthink",
		1011: "Ġgood", 1016: "Ġgo", 1022: "Ġsee", 1028: "Ġvery", 1043: "Ġwant",
		1053: "Ġwork", 1062: "Ġhere", 1077: "Ġway", 1088: "Ġcould", 1101: "Ġalso",
		1110: "Ġthen", 1123: "Ġday", 1135: "Ġmake", 1141: "Ġback", 1152: "Ġonly",
		1165: "Ġafter", 1178: "Ġnew", 1190: "Ġyears", 1201: "Ġmuch", 1212: "Ġcome",
		1222: "Ġright", 1234: "Ġwhere", 1245: "Ġdown", 1257: "Ġthrough", 1270: "Ġlook",
		1283: "Ġman", 1297: "Ġlife", 1310: "Ġeven", 1322: "Ġtake", 1336: "Ġmost",
		1349: "Ġgoing", 1364: "Ġbefore", 1378: "Ġthese", 1392: "Ġmany", 1406: "Ġwell",
		1420: "Ġsay", 1434: "Ġworld", 1448: "Ġstill", 1462: "Ġlong", 1477: "Ġmade",
		1492: "Ġany", 1507: "Ġover", 1522: "Ġlittle", 1537: "Ġyear", 1553: "Ġoff",
		1569: "Ġreally", 1584: "Ġnever", 1600: "Ġtoo", 1616: "Ġus", 1632: "Ġsomething",
		1648: "Ġeverything", 1664: "Ġthose", 1680: "Ġgreat", 1696: "Ġold", 1712: "Ġput",
		1728: "Ġthree", 1744: "Ġmight", 1760: "Ġplace", 1776: "Ġsame", 1792: "Ġunder",
		1808: "Ġdid", 1824: "Ġmust", 1840: "Ġsuch", 1856: "Ġwhile", 1872: "Ġagain",
		1888: "Ġlast", 1904: "Ġbetween", 1920: "Ġown", 1936: "Ġshould", 1952: "Ġeach",
		1968: "Ġfound", 1984: "Ġbeing", 2000: "Ġthought",
	}
}
