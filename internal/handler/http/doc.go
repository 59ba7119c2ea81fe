// Package http implements the HTTP transport layer of the application.
//
// It exposes route wiring, request handlers, and middleware used by the REST
// API under /api/v1. Cross-cutting concerns such as request tracing, access
// logging, client IP resolution, rate limiting, bearer authentication and
// role checks are handled in this package before requests are delegated to
// the service layer. Every response body uses the {success, message, data}
// envelope.
package http
