package workflow

import "strings"

// GuestIdentity is sent when nobody is signed in. Guest mode is supported, not an error.
const GuestIdentity = "demo-user"

// ResolveIdentity returns the first non-blank candidate, else GuestIdentity.
func ResolveIdentity(candidates ...string) string {
	for _, c := range candidates {
		if c = strings.TrimSpace(c); c != "" {
			return c
		}
	}
	return GuestIdentity
}
