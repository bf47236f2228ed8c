package validation

import (
	"net"
	"strconv"
	"strings"
)

// IsLoopbackHost reports whether host (no port) names the local machine.
func IsLoopbackHost(host string) bool {
	host = strings.Trim(host, "[]")
	if strings.EqualFold(host, "localhost") {
		return true
	}

	ip := net.ParseIP(host)

	return ip != nil && ip.IsLoopback()
}

// IsAllowedHost implements DNS-rebinding protection for the local server.
// An absent Host header is allowed; a present one must be exactly
// localhost:<port> or 127.0.0.1:<port>.
func IsAllowedHost(hostHeader string, port int) bool {
	if hostHeader == "" {
		return true
	}

	p := strconv.Itoa(port)

	return hostHeader == "localhost:"+p || hostHeader == "127.0.0.1:"+p
}
