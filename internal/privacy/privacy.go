// Package privacy removes credentials and host details from text that leaves
// the process: error reports and log lines mentioning broker URLs.
package privacy

import (
	"crypto/sha256"
	"fmt"
	"net"
	"net/url"
	"regexp"
	"strings"
)

// urlPattern matches the URL schemes used for brokers and the control server.
var urlPattern = regexp.MustCompile(`\b(?:tcp|ssl|tls|ws|wss|mqtt|mqtts|https?)://\S+`)

// ScrubMessage replaces every URL in message with an anonymized token.
func ScrubMessage(message string) string {
	return urlPattern.ReplaceAllStringFunc(message, AnonymizeURL)
}

// AnonymizeURL returns a stable token for rawURL that keeps the scheme, host
// category and port but no credentials, host name or path.
func AnonymizeURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		hash := sha256.Sum256([]byte(rawURL))
		return fmt.Sprintf("url-hash-%x", hash[:8])
	}

	parts := []string{u.Scheme}
	if host := u.Hostname(); host != "" {
		parts = append(parts, categorizeHost(host))
	}
	if port := u.Port(); port != "" {
		parts = append(parts, "port-"+port)
	}
	hash := sha256.Sum256([]byte(strings.Join(parts, ":")))
	return fmt.Sprintf("%s-url-%x", u.Scheme, hash[:8])
}

// SanitizeURL drops the credentials, path and query from rawURL for display.
// Text that is not a URL is returned unchanged.
func SanitizeURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return rawURL
	}
	return u.Scheme + "://" + u.Host
}

func categorizeHost(host string) string {
	switch {
	case host == "localhost":
		return "localhost"
	case net.ParseIP(host) != nil:
		ip := net.ParseIP(host)
		switch {
		case ip.IsLoopback():
			return "loopback"
		case ip.IsPrivate():
			return "private-ip"
		case ip.To4() == nil:
			return "ipv6"
		default:
			return "public-ip"
		}
	case strings.HasSuffix(host, ".local") || !strings.Contains(host, "."):
		return "local-host"
	default:
		return "remote-host"
	}
}

// SanitizedError reports a scrubbed message and unwraps to the original error.
type SanitizedError struct {
	original error
	message  string
}

func (e *SanitizedError) Error() string { return e.message }

func (e *SanitizedError) Unwrap() error { return e.original }

// WrapError scrubs the message of err. It returns nil for a nil error.
func WrapError(err error) error {
	if err == nil {
		return nil
	}
	return &SanitizedError{original: err, message: ScrubMessage(err.Error())}
}
