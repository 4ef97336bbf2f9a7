package transcription

import "unicode"

const azVowels = "aıoueəiöü"

// Azerbaijani renders Azerbaijani Latin spelling in Cyrillic for Russian speakers.
var Azerbaijani = Table{
	Case: unicode.AzeriCase,
	Rules: map[rune]Rule{
		'a': {Regular: "а"},
		'b': {Regular: "б"},
		'c': {Regular: "дж"},
		'ç': {Regular: "ч"},
		'd': {Regular: "д"},
		'e': {
			Start:   "э",
			After:   []Context{{Letters: azVowels, Value: "э"}},
			Regular: "е",
		},
		'ə': {
			Start:   "э",
			After:   []Context{{Letters: azVowels, Value: "э"}},
			Regular: "я",
		},
		'f': {Regular: "ф"},
		'g': {Regular: "г"},
		'ğ': {Regular: "гъ"},
		'h': {Regular: "х"},
		'x': {Regular: "х"},
		'ı': {Regular: "ы"},
		'i': {Regular: "и"},
		'j': {Regular: "ж"},
		'k': {Regular: "к"},
		'q': {
			Before:  []Context{{Letters: "çfkpsşt", Value: "х"}},
			Regular: "г",
		},
		'l': {Regular: "л"},
		'm': {Regular: "м"},
		'n': {Regular: "н"},
		'o': {Regular: "о"},
		'ö': {
			After:   []Context{{Letters: azVowels, Value: "йо"}},
			Regular: "ё",
		},
		'p': {Regular: "п"},
		'r': {Regular: "р"},
		's': {Regular: "с"},
		'ş': {Regular: "ш"},
		't': {Regular: "т"},
		'u': {Regular: "у"},
		'ü': {Regular: "ю"},
		'v': {Regular: "в"},
		'y': {Regular: "й"},
		'z': {Regular: "з"},
	},
}
