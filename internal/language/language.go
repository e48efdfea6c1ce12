package language

import (
	"fmt"
	"strings"

	xlanguage "golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// common are the languages accepted by ISO 639-1, ISO 639-2, or English name.
var common = []string{
	"en", "es", "fr", "de", "it", "pt", "ja", "ko", "zh", "ru", "uk", "ar",
	"hi", "nl", "pl", "cs", "bg", "el", "tr", "sv", "da", "no", "fi",
}

// bibliographic holds the ISO 639-2/B codes that differ from the /T codes.
var bibliographic = map[string]string{
	"fre": "fr", "ger": "de", "chi": "zh", "dut": "nl", "cze": "cs", "gre": "el",
}

var (
	aliases = map[string]string{}
	names   = map[string]string{}
)

func init() {
	namer := display.English.Languages()
	for _, code := range common {
		tag := xlanguage.MustParse(code)
		name := namer.Name(tag)
		names[code] = name
		aliases[code] = code
		aliases[strings.ToLower(name)] = code
		if base, _ := tag.Base(); base.ISO3() != "" {
			aliases[base.ISO3()] = code
		}
	}
	for alt, code := range bibliographic {
		aliases[alt] = code
	}
}

func lookup(code string) (string, bool) {
	code, ok := aliases[strings.ToLower(strings.TrimSpace(code))]
	return code, ok
}

// Normalize canonicalizes a language code or English language name. Known
// languages map to ISO 639-1; anything else must parse as a BCP 47 tag and is
// returned in canonical form (e.g. "pt-BR"). Empty input returns "".
func Normalize(code string) (string, error) {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return "", nil
	}
	if known, ok := lookup(trimmed); ok {
		return known, nil
	}
	tag, err := xlanguage.Parse(trimmed)
	if err == nil {
		if _, conf := tag.Base(); conf != xlanguage.No {
			return tag.String(), nil
		}
	}
	return "", fmt.Errorf("unrecognized language code %q", trimmed)
}

// ToISO2 reduces a code, tag, or name to its two-letter base. Unknown
// two-letter input passes through; anything else unrecognized yields "".
func ToISO2(code string) string {
	if known, ok := lookup(code); ok {
		return known
	}
	code = strings.ToLower(strings.TrimSpace(code))
	switch {
	case code == "":
		return ""
	case len(code) == 2:
		return code
	}
	tag, err := xlanguage.Parse(code)
	if err != nil {
		return ""
	}
	base, conf := tag.Base()
	if conf == xlanguage.No || len(base.String()) != 2 {
		return ""
	}
	return base.String()
}

// DisplayName returns the English name for code, "Unknown" for empty input,
// or the uppercased input when nothing matches.
func DisplayName(code string) string {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return "Unknown"
	}
	if known, ok := lookup(trimmed); ok {
		return names[known]
	}
	if tag, err := xlanguage.Parse(trimmed); err == nil {
		if name := display.English.Tags().Name(tag); name != "" {
			return name
		}
	}
	return strings.ToUpper(trimmed)
}
