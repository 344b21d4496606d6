package util

import (
	"net"
	"strings"
)

// RedactIP keeps enough of an address for log correlation without storing
// the full client IP.
func RedactIP(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return "invalid"
	}
	if v4 := ip.To4(); v4 != nil {
		parts := strings.Split(v4.String(), ".")
		return parts[0] + "." + parts[1] + ".x.x"
	}
	if idx := strings.Index(ip.String(), ":"); idx > 0 {
		return ip.String()[:idx] + ":..."
	}
	return "redacted"
}
