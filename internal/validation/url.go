package validation

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
)

// URLValidator validates http(s) URLs the client talks to or opens: the
// relay endpoint and article links.
type URLValidator struct {
	// AllowLocalhost determines if localhost URLs are permitted
	AllowLocalhost bool
	// AllowPrivateIPs determines if private IP addresses are permitted
	AllowPrivateIPs bool
	// MaxLength is the maximum allowed URL length
	MaxLength int
}

// NewArticleURLValidator rejects local and private targets; article links
// come from third-party data and are handed to the system opener.
func NewArticleURLValidator() *URLValidator {
	return &URLValidator{
		AllowLocalhost:  false, // Secure default: block localhost
		AllowPrivateIPs: false, // Secure default: block private IPs
		MaxLength:       2048,  // Reasonable URL length limit
	}
}

// NewEndpointValidator allows localhost and private addresses, where the
// relay usually runs.
func NewEndpointValidator() *URLValidator {
	return &URLValidator{
		AllowLocalhost:  true,
		AllowPrivateIPs: true,
		MaxLength:       2048,
	}
}

// ValidateAndNormalize validates a URL and returns the normalized version
func (v *URLValidator) ValidateAndNormalize(input string) (string, error) {
	input = strings.TrimSpace(input)

	// Length validation
	if input == "" {
		return "", fmt.Errorf("URL cannot be empty")
	}
	if len(input) > v.MaxLength {
		return "", fmt.Errorf("URL too long (max %d characters)", v.MaxLength)
	}

	// Basic character sanitization
	if strings.ContainsAny(input, "<>\"'`") {
		return "", fmt.Errorf("URL contains invalid characters")
	}

	// Add protocol if missing (default to HTTPS for security)
	lower := strings.ToLower(input)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		if strings.Contains(input, "://") {
			return "", fmt.Errorf("URL must use http or https protocol")
		}
		input = "https://" + input
	}

	// Parse URL
	parsedURL, err := url.Parse(input)
	if err != nil {
		return "", fmt.Errorf("invalid URL format: %w", err)
	}

	// Validate scheme
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return "", fmt.Errorf("URL must use http or https protocol")
	}

	// Validate host
	if parsedURL.Host == "" {
		return "", fmt.Errorf("URL must have a valid hostname")
	}

	// Security checks on hostname
	if err := v.validateHostSecurity(parsedURL.Host); err != nil {
		return "", err
	}

	// Additional security validations
	if err := v.validatePathSecurity(parsedURL); err != nil {
		return "", err
	}

	return parsedURL.String(), nil
}

// validateHostSecurity rejects local, private and obfuscated hosts the
// validator is not configured to accept.
func (v *URLValidator) validateHostSecurity(host string) error {
	hostname := host
	if strings.Contains(host, ":") {
		h, _, err := net.SplitHostPort(host)
		if err != nil {
			return fmt.Errorf("invalid host format: %w", err)
		}
		hostname = h
	}

	if !v.AllowLocalhost && isLocalhost(hostname) {
		return errors.New("localhost URLs are not permitted")
	}
	if ip := net.ParseIP(hostname); ip != nil && !v.AllowPrivateIPs && isPrivateIP(ip) {
		return errors.New("private IP addresses are not permitted")
	}
	if isSuspiciousHostname(hostname) {
		return errors.New("suspicious hostname detected")
	}
	return nil
}

func (v *URLValidator) validatePathSecurity(u *url.URL) error {
	if strings.Contains(u.Path, "..") {
		return errors.New("directory traversal patterns not allowed in URL path")
	}
	q := strings.ToLower(u.RawQuery)
	if strings.Contains(q, "<script") || strings.Contains(q, "javascript:") {
		return errors.New("suspicious query parameters detected")
	}
	return nil
}

func isLocalhost(hostname string) bool {
	switch hostname {
	case "localhost", "127.0.0.1", "::1":
		return true
	}
	return strings.HasSuffix(hostname, ".localhost")
}

// isPrivateIP covers RFC 1918, unique local, loopback and link-local
// addresses.
func isPrivateIP(ip net.IP) bool {
	return ip.IsPrivate() || ip.IsLoopback() || ip.IsLinkLocalUnicast()
}

var blockedHosts = map[string]bool{
	"localhost.com":   true,
	"0.0.0.0":         true,
	"255.255.255.255": true,
}

// isSuspiciousHostname flags a few known-bad hosts and dotted names whose
// long labels are all hex, a common way to hide an address.
func isSuspiciousHostname(hostname string) bool {
	hostname = strings.ToLower(hostname)
	if blockedHosts[hostname] {
		return true
	}
	if len(hostname) <= 8 || strings.Count(hostname, ".") != 3 || net.ParseIP(hostname) != nil {
		return false
	}
	for _, label := range strings.Split(hostname, ".") {
		if len(label) > 6 && !isHexString(label) {
			return false
		}
	}
	return true
}

func isHexString(s string) bool {
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'f', r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}
