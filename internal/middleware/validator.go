package middleware

import (
	"fmt"
	"net"
	"net/url"
	"regexp"
	"strings"
	"unicode"

	"github.com/google/uuid"
)

// Input validation and sanitization utilities

// ValidationError is an input problem reported back to the caller verbatim.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, msg string) error { return &ValidationError{Field: field, Message: msg} }

var suspiciousURLPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)javascript:`),
	regexp.MustCompile(`(?i)data:`),
	regexp.MustCompile(`(?i)vbscript:`),
	regexp.MustCompile(`(?i)<script`),
	regexp.MustCompile(`(?i)onload=`),
	regexp.MustCompile(`(?i)onerror=`),
}

var emailRx = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// NormalizeURL validates a user-supplied website address and returns it with
// an explicit scheme. Bare hosts get https://. Local, private and
// single-label hosts are rejected.
func NormalizeURL(raw string) (string, error) {
	s := SanitizeString(raw)
	if s == "" {
		return "", invalid("url", "URL cannot be empty")
	}
	for _, p := range suspiciousURLPatterns {
		if p.MatchString(s) {
			return "", invalid("url", "Invalid URL format")
		}
	}

	lower := strings.ToLower(s)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		if strings.Contains(s, "://") {
			return "", invalid("url", "Only HTTP and HTTPS URLs are allowed")
		}
		s = "https://" + s
	}

	u, err := url.Parse(s)
	if err != nil || u.Host == "" {
		return "", invalid("url", "Please enter a valid URL")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", invalid("url", "Only HTTP and HTTPS URLs are allowed")
	}
	if u.User != nil {
		return "", invalid("url", "Credentials in URLs are not allowed")
	}

	host := strings.TrimSuffix(strings.ToLower(u.Hostname()), ".")
	if isLocalHost(host) {
		return "", invalid("url", "Local and private URLs are not allowed")
	}
	if !strings.Contains(host, ".") || len(host) < 3 {
		return "", invalid("url", "Please enter a valid domain name")
	}
	return s, nil
}

func isLocalHost(host string) bool {
	if host == "localhost" || strings.HasSuffix(host, ".localhost") ||
		strings.HasSuffix(host, ".local") || strings.HasSuffix(host, ".internal") {
		return true
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return false
	}
	return ip.IsLoopback() || ip.IsPrivate() || ip.IsUnspecified() ||
		ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast()
}

// ValidateEmail trims and lowercases email and checks its shape.
func ValidateEmail(email string) (string, error) {
	e := strings.ToLower(strings.TrimSpace(email))
	if e == "" {
		return "", invalid("email", "Email is required")
	}
	if !emailRx.MatchString(e) {
		return "", invalid("email", "Please enter a valid email address")
	}
	if len(e) > 254 {
		return "", invalid("email", "Email address is too long")
	}
	return e, nil
}

// ValidatePassword enforces 8..128 characters with a letter and a digit.
func ValidatePassword(password string) error {
	if password == "" {
		return invalid("password", "Password is required")
	}
	if len(password) < 8 {
		return invalid("password", "Password must be at least 8 characters long")
	}
	if len(password) > 128 {
		return invalid("password", "Password is too long")
	}
	var letter, digit bool
	for _, r := range password {
		switch {
		case r <= unicode.MaxASCII && unicode.IsLetter(r):
			letter = true
		case r >= '0' && r <= '9':
			digit = true
		}
	}
	if !letter || !digit {
		return invalid("password", "Password must contain at least one letter and one number")
	}
	return nil
}

// SanitizeString removes dangerous characters from strings
func SanitizeString(input string) string {
	// Remove null bytes
	input = strings.ReplaceAll(input, "\x00", "")

	// Remove control characters
	var result strings.Builder
	for _, r := range input {
		if r >= 32 || r == '\t' || r == '\n' {
			result.WriteRune(r)
		}
	}

	return strings.TrimSpace(result.String())
}

// ValidateScanID validates scan ID format
func ValidateScanID(scanID string) error {
	if scanID == "" {
		return invalid("id", "scan ID cannot be empty")
	}
	if _, err := uuid.Parse(scanID); err != nil {
		return invalid("id", "invalid scan ID format")
	}
	return nil
}
