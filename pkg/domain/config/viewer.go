package config

import "strings"

// Mask replaces sensitive values in rendered configuration.
const Mask = "******"

// DefaultSensitiveKeys are masked when no strategy is given. The database
// URL embeds credentials so it is hidden as a whole.
var DefaultSensitiveKeys = []string{"password", "secret", "token", "credential", "database.url"}

// MaskStrategy decides what a setting looks like in rendered output. key is
// the full dotted path; value is a leaf or a nested map.
type MaskStrategy interface {
	MaskValue(key string, value any) any
}

// DefaultMaskStrategy hides any key containing one of SensitiveKeys,
// ignoring case.
type DefaultMaskStrategy struct {
	SensitiveKeys []string
	// MaskPattern defaults to Mask.
	MaskPattern string
}

func (s *DefaultMaskStrategy) MaskValue(key string, value any) any {
	key = strings.ToLower(key)
	for _, k := range s.SensitiveKeys {
		if strings.Contains(key, strings.ToLower(k)) {
			if s.MaskPattern == "" {
				return Mask
			}
			return s.MaskPattern
		}
	}
	return value
}
