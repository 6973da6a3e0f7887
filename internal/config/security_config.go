package config

import "strings"

type SecurityLevel int

const (
	SecurityPublic  SecurityLevel = iota // No authentication
	SecurityService                      // Service token required
)

// routeSecurity maps path prefixes to the level they require. The longest
// matching prefix wins.
var routeSecurity = map[string]SecurityLevel{
	"/health":       SecurityPublic,
	"/users/":       SecurityPublic,
	"/interaction/": SecurityService,
}

// GetSecurityLevel returns the security level for a request path
func GetSecurityLevel(path string) SecurityLevel {
	level := SecurityPublic
	best := -1
	for prefix, l := range routeSecurity {
		if strings.HasPrefix(path, prefix) && len(prefix) > best {
			level = l
			best = len(prefix)
		}
	}
	return level
}
