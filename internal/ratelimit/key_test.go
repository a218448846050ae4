package ratelimit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEndpointKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		method   string
		path     string
		clientID string
		expected string
	}{
		{
			name:     "plain path",
			method:   "GET",
			path:     "/api/usuarios",
			clientID: "1.2.3.4",
			expected: "GET:/api/usuarios:1.2.3.4",
		},
		{
			name:     "query stripped",
			method:   "GET",
			path:     "/api/productos?categoria=x&page=2",
			clientID: "1.2.3.4",
			expected: "GET:/api/productos:1.2.3.4",
		},
		{
			name:     "ipv6 client",
			method:   "POST",
			path:     "/auth/login",
			clientID: "::1",
			expected: "POST:/auth/login:::1",
		},
		{
			name:     "empty query marker",
			method:   "GET",
			path:     "/?",
			clientID: "10.0.0.1",
			expected: "GET:/:10.0.0.1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, EndpointKey(tt.method, tt.path, tt.clientID))
		})
	}
}

func TestEndpointKey_DistinguishesMethodAndClient(t *testing.T) {
	t.Parallel()

	get := EndpointKey("GET", "/api/productos", "1.2.3.4")
	post := EndpointKey("POST", "/api/productos", "1.2.3.4")
	other := EndpointKey("GET", "/api/productos", "5.6.7.8")

	assert.NotEqual(t, get, post)
	assert.NotEqual(t, get, other)
}
