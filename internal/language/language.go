package language

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Auto is the setting that lets the recognizer detect the language.
const Auto = "auto"

// ErrUnknown reports a setting that is neither a known ISO 639 code nor an
// English language name.
var ErrUnknown = errors.New("unknown language")

// named lists the languages whose English names are accepted as settings.
// Codes outside the list are still accepted.
var named = []string{
	"af", "ar", "bg", "ca", "cs", "cy", "da", "de", "el", "en", "es", "et",
	"fa", "fi", "fr", "he", "hi", "hr", "hu", "id", "it", "ja", "ko", "lt",
	"lv", "ms", "nl", "no", "pl", "pt", "ro", "ru", "sk", "sl", "sr", "sv",
	"th", "tr", "uk", "ur", "vi", "yue", "zh",
}

var byName = sync.OnceValue(func() map[string]string {
	namer := display.English.Languages()
	out := make(map[string]string, len(named))
	for _, code := range named {
		if name := namer.Name(language.Make(code)); name != "" {
			out[strings.ToLower(name)] = code
		}
	}
	return out
})

// Normalize folds a configured language into the short code the recognizer
// expects: "ENG" and "english" become "en", "zho" becomes "zh". Empty input
// and "auto" normalize to Auto.
func Normalize(setting string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(setting))
	if value == "" || value == Auto {
		return Auto, nil
	}
	if code, ok := byName()[value]; ok {
		return code, nil
	}
	base, err := language.ParseBase(value)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrUnknown, setting)
	}
	return base.String(), nil
}

// DisplayName returns the English name for a setting, "auto-detect" for
// Auto, or the setting itself when it is not recognized.
func DisplayName(setting string) string {
	code, err := Normalize(setting)
	if err != nil {
		return strings.TrimSpace(setting)
	}
	if code == Auto {
		return "auto-detect"
	}
	if name := display.English.Languages().Name(language.Make(code)); name != "" {
		return name
	}
	return code
}

// TranscriptionHint converts a configured language setting into the hint
// passed to the speech recognizer. Auto and unrecognized values mean no hint.
func TranscriptionHint(setting string) string {
	code, err := Normalize(setting)
	if err != nil || code == Auto {
		return ""
	}
	return code
}
