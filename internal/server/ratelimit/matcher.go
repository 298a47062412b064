package ratelimit

import (
	"net/http"
	"strings"
)

// unlimitedRoutes bypass rate limiting entirely
var unlimitedRoutes = []EndpointConfig{
	{Path: "/health", Method: http.MethodGet},
}

// MatchEndpoint matches a request path and method to an endpoint configuration.
// Paths use the server's route syntax: "{id}" matches one non-empty segment and a
// final "{rest...}" matches the remainder. An empty Method matches any method.
// A literal path wins over a wildcard one. Returns nil if no match is found.
func MatchEndpoint(path string, method string, configs []EndpointConfig) *EndpointConfig {
	for _, route := range unlimitedRoutes {
		if route.Path == path && route.Method == method {
			return &EndpointConfig{Path: route.Path, Method: route.Method}
		}
	}

	var wildcard *EndpointConfig
	for i := range configs {
		config := &configs[i]
		if config.Method != "" && config.Method != method {
			continue
		}
		if config.Path == path {
			return config
		}
		if wildcard == nil && matchPattern(config.Path, path) {
			wildcard = config
		}
	}
	return wildcard
}

// matchPattern reports whether path fits a route pattern segment by segment
func matchPattern(pattern, path string) bool {
	if !strings.Contains(pattern, "{") {
		return false
	}
	patternSegs := strings.Split(strings.Trim(pattern, "/"), "/")
	pathSegs := strings.Split(strings.Trim(path, "/"), "/")

	for i, seg := range patternSegs {
		if strings.HasPrefix(seg, "{") && strings.HasSuffix(seg, "...}") {
			return len(pathSegs) >= i
		}
		if i >= len(pathSegs) {
			return false
		}
		if strings.HasPrefix(seg, "{") && strings.HasSuffix(seg, "}") {
			if pathSegs[i] == "" {
				return false
			}
			continue
		}
		if seg != pathSegs[i] {
			return false
		}
	}
	return len(patternSegs) == len(pathSegs)
}
