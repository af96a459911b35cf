// Package redact masks credentials, tokens and e-mail addresses before they
// reach logs or error messages.
package redact

import (
	"net/url"
	"regexp"
	"strings"
)

const (
	RedactedCredentialPlaceholder = "[REDACTED_CREDENTIAL]"
	RedactedKeyPlaceholder        = "[REDACTED_KEY]"
	RedactedJWTPlaceholder        = "[REDACTED_JWT]"
	RedactedEmailPlaceholder      = "[REDACTED_EMAIL]"
)

var (
	// userinfo of any scheme://user:pass@ URL
	connUserinfoRegex = regexp.MustCompile(`(?i)\b([a-z][a-z0-9+.-]*://)[^/@\s]+@`)

	passwordRegex = regexp.MustCompile(`(?i)(password|passwd|pwd)([=:\s]+['"]?)[^'"&\s]{3,}`)
	apiKeyRegex   = regexp.MustCompile(
		`(?i)(api[_-]?key|token|secret)(['"\s:=]+)[A-Za-z0-9_\-.~+/]{8,}`,
	)
	jwtTokenRegex = regexp.MustCompile(`eyJ[a-zA-Z0-9_-]+\.eyJ[a-zA-Z0-9_-]+\.[a-zA-Z0-9_-]+`)
	emailRegex    = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
)

// String redacts credentials, tokens and e-mail addresses from input.
func String(input string) string {
	if input == "" {
		return input
	}

	result := jwtTokenRegex.ReplaceAllString(input, RedactedJWTPlaceholder)
	result = connUserinfoRegex.ReplaceAllString(result, "${1}"+RedactedCredentialPlaceholder+"@")
	result = passwordRegex.ReplaceAllString(result, "${1}${2}"+RedactedCredentialPlaceholder)
	result = apiKeyRegex.ReplaceAllString(result, "${1}${2}"+RedactedKeyPlaceholder)
	result = emailRegex.ReplaceAllString(result, RedactedEmailPlaceholder)
	return result
}

// Error redacts sensitive information from an error's Error() output.
func Error(err error) string {
	if err == nil {
		return ""
	}
	return String(err.Error())
}

// URL returns raw with any password replaced, keeping scheme, user, host and
// path readable. Query parameters named like secrets are masked as well.
// Unparseable input is passed through String.
func URL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return String(raw)
	}

	if u.User != nil {
		if _, hasPassword := u.User.Password(); hasPassword {
			u.User = url.UserPassword(u.User.Username(), "xxxxx")
		}
	}

	q := u.Query()
	changed := false
	for key := range q {
		lower := strings.ToLower(key)
		if strings.Contains(lower, "password") || strings.Contains(lower, "secret") ||
			strings.Contains(lower, "token") {
			q.Set(key, "xxxxx")
			changed = true
		}
	}
	if changed {
		u.RawQuery = q.Encode()
	}

	return u.String()
}

// Email masks the local part of an address, keeping its first character and
// the domain: "alice@example.com" becomes "a***@example.com".
func Email(addr string) string {
	at := strings.LastIndex(addr, "@")
	if at <= 0 {
		if addr == "" {
			return ""
		}
		return RedactedEmailPlaceholder
	}
	return addr[:1] + "***" + addr[at:]
}
