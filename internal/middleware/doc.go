// Package middleware provides the HTTP middleware chain: request ids, panic
// recovery, access logging safe against log injection, and Prometheus
// request metrics labelled by route template.
package middleware
