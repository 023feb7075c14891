package normalize

import (
	"strings"
)

// ToLowerDotPath normalizes an environment-style key to a lowercase dot-separated path.
// Double underscores (__) separate levels; single underscores are preserved.
// Examples:
//   - "SOUND__RATE" → "sound.rate"
//   - "SDL__FULL_SCREEN" → "sdl.full_screen"
func ToLowerDotPath(key string) string {
	normalized := strings.ReplaceAll(key, "__", ".")
	return strings.ToLower(normalized)
}

// Name normalizes a section or property name for lookup: blanks are trimmed and
// letters lowercased.
func Name(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Key builds the qualified lookup key "section.property" from raw names.
// Examples:
//   - Key("SBlaster", "IRQ") → "sblaster.irq"
//   - Key("", "rate") → ".rate"
func Key(section, property string) string {
	return Name(section) + "." + Name(property)
}

// SplitKey splits a qualified key at its first dot.
// It reports false when the key has no dot or either side is empty.
func SplitKey(key string) (section, property string, ok bool) {
	section, property, found := strings.Cut(key, ".")
	if !found || section == "" || property == "" {
		return "", "", false
	}
	return section, property, true
}
