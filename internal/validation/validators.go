// Package validation holds input checks shared by the config loader and
// the commands that act on context values.
package validation

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	// RFC 1123 label: alphanumeric and dash, no leading or trailing dash
	hostLabelRegex = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?$`)

	// Dangerous characters that should never appear in a host name
	dangerousChars = []string{";", "|", "&", "$", "`", "(", ")", "<", ">", "\\", "\"", "'", "\n", "\r"}
)

// ValidateHostname validates a host name, optionally fully qualified.
func ValidateHostname(name string) error {
	if name == "" {
		return fmt.Errorf("host name cannot be empty")
	}

	for _, char := range dangerousChars {
		if strings.Contains(name, char) {
			return fmt.Errorf("host name contains dangerous character: %q", char)
		}
	}

	fqdn := strings.TrimSuffix(name, ".")
	if len(fqdn) > 253 {
		return fmt.Errorf("host name too long (max 253 characters)")
	}

	for _, label := range strings.Split(fqdn, ".") {
		if !hostLabelRegex.MatchString(label) {
			return fmt.Errorf("invalid host name label %q", label)
		}
	}
	return nil
}

// ValidateAbsPath validates that a path is absolute and free of traversal.
func ValidateAbsPath(path string) error {
	if path == "" {
		return fmt.Errorf("path cannot be empty")
	}

	// Check for null bytes
	if strings.Contains(path, "\x00") {
		return fmt.Errorf("null byte in path")
	}

	if !filepath.IsAbs(path) {
		return fmt.Errorf("path must be absolute: %s", path)
	}

	// Reject path traversal attempts
	for _, elem := range strings.Split(filepath.ToSlash(path), "/") {
		if elem == ".." {
			return fmt.Errorf("path traversal not allowed: %s", path)
		}
	}
	return nil
}

// ValidateAllowlist checks if a value is in an allowed list
func ValidateAllowlist(value string, allowed []string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return fmt.Errorf("value %q not in allowlist (%s)", value, strings.Join(allowed, ", "))
}

// ValidatePortNumber validates a port number
func ValidatePortNumber(port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("invalid port number: %d (must be 1-65535)", port)
	}
	return nil
}
