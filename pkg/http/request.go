package http

import (
	"net"
	"net/http"
	"strings"
)

// DefaultClientIP is used when a request carries no usable address.
const DefaultClientIP = "127.0.0.1"

// IPConfig holds configuration for IP extraction and validation
type IPConfig struct {
	TrustedProxies []string // CIDR ranges of trusted proxies
}

// ExtractClientIP resolves the client address of a request.
//
// The first X-Forwarded-For entry wins, then RemoteAddr. With trusted
// proxies configured, the header is honored only when the direct peer is one
// of them. A first entry that is not an IP address is ignored rather than
// stored. DefaultClientIP is returned when nothing usable is found.
func ExtractClientIP(r *http.Request, config *IPConfig) string {
	remoteIP := getRemoteAddr(r)

	trustHeaders := config == nil || len(config.TrustedProxies) == 0 ||
		isTrustedProxy(remoteIP, config.TrustedProxies)

	if trustHeaders {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			if first = strings.TrimSpace(first); isValidIP(first) {
				return first
			}
		}
	}

	if remoteIP == "" {
		return DefaultClientIP
	}
	return remoteIP
}

// getRemoteAddr extracts the IP address from RemoteAddr (removing port if present)
func getRemoteAddr(r *http.Request) string {
	if r.RemoteAddr == "" {
		return ""
	}
	if ip, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return ip
	}
	return r.RemoteAddr
}

// isTrustedProxy checks if an IP address is within any of the trusted proxy CIDR ranges
func isTrustedProxy(ip string, trustedProxies []string) bool {
	clientIP := net.ParseIP(ip)
	if clientIP == nil {
		return false
	}

	for _, cidr := range trustedProxies {
		_, ipNet, err := net.ParseCIDR(cidr)
		if err != nil {
			continue
		}
		if ipNet.Contains(clientIP) {
			return true
		}
	}

	return false
}

// isValidIP checks if a string is a valid IPv4 or IPv6 address
func isValidIP(ip string) bool {
	return net.ParseIP(ip) != nil
}
