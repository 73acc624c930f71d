// Package languages holds the fixed table of languages lingo can translate
// between, plus the smaller table used to name detected languages.
package languages

import (
	"sort"
	"strings"

	"golang.org/x/text/language"
)

// DefaultCode is used when a caller does not supply a language.
const DefaultCode = "en"

// Language is a language code paired with its display name.
type Language struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// supported lists every target language of the translation backend.
var supported = map[string]string{
	"af": "Afrikaans", "sq": "Albanian", "am": "Amharic", "ar": "Arabic",
	"hy": "Armenian", "az": "Azerbaijani", "eu": "Basque", "be": "Belarusian",
	"bn": "Bengali", "bs": "Bosnian", "bg": "Bulgarian", "ca": "Catalan",
	"ceb": "Cebuano", "ny": "Chichewa", "zh-cn": "Chinese (Simplified)",
	"zh-tw": "Chinese (Traditional)", "co": "Corsican", "hr": "Croatian",
	"cs": "Czech", "da": "Danish", "nl": "Dutch", "en": "English",
	"eo": "Esperanto", "et": "Estonian", "tl": "Filipino", "fi": "Finnish",
	"fr": "French", "fy": "Frisian", "gl": "Galician", "ka": "Georgian",
	"de": "German", "el": "Greek", "gu": "Gujarati", "ht": "Haitian Creole",
	"ha": "Hausa", "haw": "Hawaiian", "iw": "Hebrew", "hi": "Hindi",
	"hmn": "Hmong", "hu": "Hungarian", "is": "Icelandic", "ig": "Igbo",
	"id": "Indonesian", "ga": "Irish", "it": "Italian", "ja": "Japanese",
	"jw": "Javanese", "kn": "Kannada", "kk": "Kazakh", "km": "Khmer",
	"ko": "Korean", "ku": "Kurdish (Kurmanji)", "ky": "Kyrgyz", "lo": "Lao",
	"la": "Latin", "lv": "Latvian", "lt": "Lithuanian", "lb": "Luxembourgish",
	"mk": "Macedonian", "mg": "Malagasy", "ms": "Malay", "ml": "Malayalam",
	"mt": "Maltese", "mi": "Maori", "mr": "Marathi", "mn": "Mongolian",
	"my": "Myanmar (Burmese)", "ne": "Nepali", "no": "Norwegian", "ps": "Pashto",
	"fa": "Persian", "pl": "Polish", "pt": "Portuguese", "pa": "Punjabi",
	"ro": "Romanian", "ru": "Russian", "sm": "Samoan", "gd": "Scots Gaelic",
	"sr": "Serbian", "st": "Sesotho", "sn": "Shona", "sd": "Sindhi",
	"si": "Sinhala", "sk": "Slovak", "sl": "Slovenian", "so": "Somali",
	"es": "Spanish", "su": "Sundanese", "sw": "Swahili", "sv": "Swedish",
	"tg": "Tajik", "ta": "Tamil", "te": "Telugu", "th": "Thai", "tr": "Turkish",
	"uk": "Ukrainian", "ur": "Urdu", "uz": "Uzbek", "vi": "Vietnamese",
	"cy": "Welsh", "xh": "Xhosa", "yi": "Yiddish", "yo": "Yoruba",
	"zu": "Zulu",
}

// detectable names the languages the detector reports. Codes missing from
// this table are still returned, but named "English".
var detectable = map[string]string{
	"ar": "Arabic", "bg": "Bulgarian",
	"ceb": "Cebuano", "zh-cn": "Chinese (Simplified)",
	"zh-tw": "Chinese (Traditional)",
	"cs": "Czech", "nl": "Dutch", "en": "English",
	"et": "Estonian", "tl": "Filipino", "fi": "Finnish",
	"fr": "French", "de": "German", "el": "Greek",
	"iw": "Hebrew", "hi": "Hindi", "hu": "Hungarian",
	"id": "Indonesian", "ga": "Irish", "it": "Italian", "ja": "Japanese",
	"jw": "Javanese", "ko": "Korean",
	"la": "Latin", "lv": "Latvian", "lt": "Lithuanian", "mn": "Mongolian",
	"my": "Myanmar (Burmese)", "ne": "Nepali", "no": "Norwegian",
	"fa": "Persian", "pl": "Polish", "pt": "Portuguese", "pa": "Punjabi",
	"ro": "Romanian", "ru": "Russian",
	"sr": "Serbian", "sl": "Slovenian", "so": "Somali",
	"es": "Spanish", "sv": "Swedish",
	"th": "Thai", "tr": "Turkish",
	"uk": "Ukrainian", "vi": "Vietnamese",
}

// aliases maps ISO 639-1 codes to the legacy codes used by the tables.
var aliases = map[string]string{
	"zh":    "zh-cn",
	"zh-cn": "zh-cn",
	"zh-tw": "zh-tw",
	"he":    "iw",
	"jv":    "jw",
	"nb":    "no",
}

// All returns a copy of the supported language table keyed by code.
func All() map[string]string {
	out := make(map[string]string, len(supported))
	for k, v := range supported {
		out[k] = v
	}
	return out
}

// Sorted returns the supported languages ordered by display name.
func Sorted() []Language {
	return SortedFrom(supported)
}

// SortedFrom turns a code -> name map into a slice ordered by name, then code.
func SortedFrom(m map[string]string) []Language {
	out := make([]Language, 0, len(m))
	for code, name := range m {
		out = append(out, Language{Code: code, Name: name})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name == out[j].Name {
			return out[i].Code < out[j].Code
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Name returns the display name of a supported language.
func Name(code string) (string, bool) {
	name, ok := supported[strings.ToLower(code)]
	return name, ok
}

// NameOr returns the display name of code, or fallback if it is unknown.
func NameOr(code, fallback string) string {
	if name, ok := Name(code); ok {
		return name
	}
	return fallback
}

// Normalize lower-cases code and maps aliases (e.g. "zh" or "he") onto the
// codes used by the tables.
func Normalize(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if mapped, ok := aliases[code]; ok {
		return mapped
	}
	if strings.HasPrefix(code, "zh") {
		return "zh-cn"
	}
	return code
}

// Detected builds the Language reported for a detector code.
func Detected(code string) Language {
	code = Normalize(code)
	name, ok := detectable[code]
	if !ok {
		name = "English"
	}
	return Language{Code: code, Name: name}
}

// Valid reports whether code is a well-formed BCP 47 tag that the
// translation backend supports.
func Valid(code string) bool {
	code = strings.ToLower(code)
	if _, ok := supported[code]; !ok {
		return false
	}
	_, err := language.Parse(code)
	return err == nil
}
