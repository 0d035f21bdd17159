// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package base

import (
	"fmt"
	"net"
	"net/url"
	"path"
	"regexp"
	"strings"
)

// URLValidationOptions configures URL validation behavior
type URLValidationOptions struct {
	// AllowPrivateIPs permits loopback and private addresses. Remote
	// modelers are commonly deployed next to the service, so this is on by
	// default for connector endpoints.
	AllowPrivateIPs bool
	// AllowedSchemes specifies permitted URL schemes (default: ["https", "http"])
	AllowedSchemes []string
	// BlockedHosts explicitly blocks certain hostnames
	BlockedHosts []string
}

// DefaultURLValidationOptions returns the options used for connector endpoints
func DefaultURLValidationOptions() URLValidationOptions {
	return URLValidationOptions{
		AllowPrivateIPs: true,
		AllowedSchemes:  []string{"https", "http"},
	}
}

// ValidateURL checks scheme, host and, unless private addresses are allowed,
// that every resolved address is public.
func ValidateURL(rawURL string, opts URLValidationOptions) error {
	if rawURL == "" {
		return fmt.Errorf("URL cannot be empty")
	}

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL format: %w", err)
	}

	if err := validateScheme(parsedURL.Scheme, opts.AllowedSchemes); err != nil {
		return err
	}

	hostname := parsedURL.Hostname()
	if hostname == "" {
		return fmt.Errorf("URL must contain a hostname")
	}

	if isHostBlocked(hostname, opts.BlockedHosts) {
		return fmt.Errorf("hostname %q is blocked", hostname)
	}

	if !opts.AllowPrivateIPs {
		ips, err := net.LookupIP(hostname)
		if err != nil {
			return fmt.Errorf("failed to resolve hostname %q: %w", hostname, err)
		}
		for _, ip := range ips {
			if isPrivateIP(ip) {
				return fmt.Errorf("connection to private/internal IP %s is not allowed (hostname: %s)", ip, hostname)
			}
		}
	}

	return nil
}

func validateScheme(scheme string, allowedSchemes []string) error {
	if len(allowedSchemes) == 0 {
		allowedSchemes = []string{"https", "http"}
	}

	scheme = strings.ToLower(scheme)
	for _, allowed := range allowedSchemes {
		if scheme == strings.ToLower(allowed) {
			return nil
		}
	}

	return fmt.Errorf("URL scheme %q is not allowed; permitted schemes: %v", scheme, allowedSchemes)
}

func isPrivateIP(ip net.IP) bool {
	if ip.IsLoopback() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() {
		return true
	}
	if ip.IsPrivate() || ip.IsUnspecified() {
		return true
	}
	if ip4 := ip.To4(); ip4 != nil {
		// 100.64.0.0/10 (Carrier-grade NAT)
		if ip4[0] == 100 && ip4[1] >= 64 && ip4[1] <= 127 {
			return true
		}
		// 0.0.0.0/8
		if ip4[0] == 0 {
			return true
		}
	}
	return false
}

func isHostBlocked(hostname string, blockedHosts []string) bool {
	hostname = strings.ToLower(hostname)
	for _, blocked := range blockedHosts {
		blocked = strings.ToLower(blocked)
		if hostname == blocked || strings.HasSuffix(hostname, "."+blocked) {
			return true
		}
	}
	return false
}

var ansiRegex = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// SanitizeLogString escapes newlines and strips ANSI sequences from
// caller-supplied ids before they are logged.
func SanitizeLogString(s string) string {
	s = strings.ReplaceAll(s, "\n", "\\n")
	s = strings.ReplaceAll(s, "\r", "\\r")
	s = ansiRegex.ReplaceAllString(s, "")
	const maxLogLength = 500
	if len(s) > maxLogLength {
		s = s[:maxLogLength] + "...[truncated]"
	}
	return s
}

// CleanNodePath normalizes a slash-separated node id into a relative path
// with no leading slash. "" and "/" map to "". Ids that would escape the
// connector root, or that contain NUL bytes, are rejected.
func CleanNodePath(id string) (string, error) {
	if strings.Contains(id, "\x00") {
		return "", fmt.Errorf("null bytes not allowed in node id")
	}
	id = strings.ReplaceAll(id, "\\", "/")
	for _, seg := range strings.Split(id, "/") {
		if seg == ".." {
			return "", fmt.Errorf("path traversal not allowed: %q", id)
		}
	}
	cleaned := path.Clean("/" + id)
	return strings.TrimPrefix(cleaned, "/"), nil
}

// ValidateNodeName checks a name for a new folder or artifact. Names are a
// single path segment.
func ValidateNodeName(name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return fmt.Errorf("%w: name must not be empty", ErrInvalidArgument)
	case name == "." || name == "..":
		return fmt.Errorf("%w: name %q is reserved", ErrInvalidArgument, name)
	case strings.ContainsAny(name, "/\\\x00"):
		return fmt.Errorf("%w: name %q must not contain path separators", ErrInvalidArgument, name)
	}
	return nil
}
