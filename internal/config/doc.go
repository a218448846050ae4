// Package config provides configuration loading, validation, and file
// watching for the server.
//
// Configuration is read from YAML. ${VAR} and ${VAR:-default} references are
// expanded from the environment before parsing, and "$$" escapes a literal
// dollar sign. Fields absent from the file keep the values from Default().
//
// Example configuration:
//
//	server:
//	  port: 3000
//	rateLimit:
//	  default:
//	    max: 5
//	    window: 60s
//	  routes:
//	    "POST /auth/login":
//	      max: 3
//	      window: 60s
//	cache:
//	  ttl: 30s
//	auth:
//	  token: ${API_TOKEN:-mi-token-secreto}
package config
