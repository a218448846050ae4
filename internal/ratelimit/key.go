package ratelimit

import "strings"

// EndpointKey builds the rate limit key for a request: method, path with any
// query string removed, and the client identifier, joined by colons.
func EndpointKey(method, path, clientID string) string {
	if idx := strings.IndexByte(path, '?'); idx != -1 {
		path = path[:idx]
	}

	var sb strings.Builder
	sb.Grow(len(method) + len(path) + len(clientID) + 2)
	sb.WriteString(method)
	sb.WriteByte(':')
	sb.WriteString(path)
	sb.WriteByte(':')
	sb.WriteString(clientID)
	return sb.String()
}
