// Package credentials provides the injected credential-lookup capability.
// Users are provisioned out of band; nothing in this service creates them.
package credentials

import (
	"fmt"
	"strings"
)

// Lookup checks a username/password pair.
type Lookup interface {
	Authenticate(username, password string) bool
}

// StaticMap is a fixed username -> password table.
type StaticMap map[string]string

// Authenticate reports whether the pair matches a provisioned user.
func (m StaticMap) Authenticate(username, password string) bool {
	pw, ok := m[username]
	return ok && pw == password
}

// ParseStatic parses a "user:pass,user:pass" credential string, the format
// the --credentials flag uses.
func ParseStatic(s string) (StaticMap, error) {
	creds := StaticMap{}
	if strings.TrimSpace(s) == "" {
		return creds, nil
	}
	for _, pair := range strings.Split(s, ",") {
		parts := strings.SplitN(strings.TrimSpace(pair), ":", 2)
		if len(parts) != 2 || parts[0] == "" {
			return nil, fmt.Errorf("invalid credential pair: %q", pair)
		}
		creds[parts[0]] = parts[1]
	}
	return creds, nil
}
