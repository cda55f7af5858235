package app

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/fyrsmithlabs/framebox/internal/hosting"
)

// IsLoopback reports whether origin's host is localhost or a loopback IP.
func IsLoopback(origin string) bool {
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	host := u.Hostname()
	if strings.EqualFold(host, "localhost") {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// EmbedBase picks the base URL for embed links. The backend's suggested URL
// wins only when origin is loopback and a suggestion exists.
func EmbedBase(origin string, info *hosting.ServerInfo) string {
	origin = strings.TrimRight(origin, "/")
	if info == nil || info.SuggestedURL == "" || !IsLoopback(origin) {
		return origin
	}
	return strings.TrimRight(info.SuggestedURL, "/")
}

// EmbedCode is the iframe snippet embedding a project by name.
func EmbedCode(base, name string) string {
	return fmt.Sprintf(`<iframe src="%s" width="100%%" height="600" frameborder="0"></iframe>`,
		hosting.ViewURL(base, name))
}
