package mediainfo

import "strings"

// legacyCodes maps ISO 639-2/B codes Kodi still emits onto their modern
// equivalents so the two language sources compare equal.
var legacyCodes = map[string]string{
	"GER": "DEU",
	"FRE": "FRA",
}

// NormalizeLanguageCode reduces a raw track language to a comparable
// three-letter uppercase code.
func NormalizeLanguageCode(raw string) string {
	code := strings.ToUpper(strings.TrimSpace(raw))
	if len(code) > 3 {
		code = code[:3]
	}
	if mapped, ok := legacyCodes[code]; ok {
		return mapped
	}
	return code
}

// mergeLanguages combines the full track list with the currently-active
// label into one ordered, deduplicated slice. The active label wins over
// whatever the track list claims; when no label is reported the first
// listed track is treated as active so exactly one entry is marked
// whenever any exist.
func mergeLanguages(kind LanguageKind, listed []string, activeLabel string) []Language {
	active := NormalizeLanguageCode(activeLabel)

	var out []Language
	seen := map[string]bool{}
	for _, raw := range listed {
		code := NormalizeLanguageCode(raw)
		if code == "" || seen[code] {
			continue
		}
		seen[code] = true
		out = append(out, Language{Code: code, Kind: kind})
	}
	if active != "" && !seen[active] {
		out = append(out, Language{Code: active, Kind: kind})
		seen[active] = true
	}

	if len(out) == 0 {
		return nil
	}
	marked := false
	for i := range out {
		if active != "" && out[i].Code == active {
			out[i].Active = true
			marked = true
		}
	}
	if !marked {
		out[0].Active = true
	}
	return out
}
