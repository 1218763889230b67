package platform

import "strings"

// PermissionMode mirrors the app-op modes a platform reports for a package
type PermissionMode string

const (
	ModeAllowed    PermissionMode = "allow"
	ModeIgnored    PermissionMode = "ignore"
	ModeErrored    PermissionMode = "deny"
	ModeDefault    PermissionMode = "default"
	ModeForeground PermissionMode = "foreground"
)

// Granted reports whether the mode lets the caller read usage stats.
// Only an explicit allow counts; default means the user never decided.
func (m PermissionMode) Granted() bool {
	return m == ModeAllowed
}

// ParsePermissionMode converts a mode word into a PermissionMode.
// Unknown words map to ModeDefault.
func ParsePermissionMode(s string) PermissionMode {
	switch PermissionMode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeAllowed:
		return ModeAllowed
	case ModeIgnored:
		return ModeIgnored
	case ModeErrored:
		return ModeErrored
	case ModeForeground:
		return ModeForeground
	default:
		return ModeDefault
	}
}
