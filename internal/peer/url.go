package peer

import (
	"fmt"
	"strconv"
	"strings"
)

// URL is a parsed plasma://host:port peer address.
type URL struct {
	Host string
	Port int
}

// ParseURL parses a plasma:// address.
func ParseURL(raw string) (URL, error) {
	const scheme = "plasma://"
	if !strings.HasPrefix(raw, scheme) {
		return URL{}, fmt.Errorf("peer: not a plasma url: %q", raw)
	}
	hostport := strings.TrimPrefix(raw, scheme)
	host, portStr, found := strings.Cut(hostport, ":")
	if !found {
		return URL{}, fmt.Errorf("peer: missing port: %q", raw)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return URL{}, fmt.Errorf("peer: invalid port in %q: %w", raw, err)
	}
	return URL{Host: host, Port: port}, nil
}

func (u URL) String() string {
	return fmt.Sprintf("plasma://%s:%d", u.Host, u.Port)
}
