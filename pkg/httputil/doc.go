// Package httputil provides JSON response helpers and the outer HTTP
// middleware (request IDs, access logging, panic recovery) shared by the
// API surface and the health endpoints.
package httputil
