// Package privacy reduces personal data before it reaches logs.
package privacy

import (
	"net"
	"strings"
)

// AnonymizeIP keeps the network prefix of an address: /24 for IPv4, /48 for
// IPv6. Unparseable input is returned as "invalid".
func AnonymizeIP(ip string) string {
	if ip == "" {
		return ""
	}
	parsed := net.ParseIP(strings.TrimSpace(ip))
	if parsed == nil {
		return "invalid"
	}
	if v4 := parsed.To4(); v4 != nil {
		return v4.Mask(net.CIDRMask(24, 32)).String()
	}
	return parsed.Mask(net.CIDRMask(48, 128)).String()
}
