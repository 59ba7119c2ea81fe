package server

import "context"

// Server defines the lifecycle contract of the transport servers managed by
// this package.
type Server interface {
	// RunServer starts every configured transport and blocks until ctx is
	// cancelled or a transport fails, then shuts all of them down.
	RunServer(ctx context.Context) error
}

// transport is a single listener owned by the aggregate server.
type transport interface {
	// RunServer serves requests and blocks until the transport stops.
	RunServer() error

	// Shutdown stops the transport gracefully, or forcibly once ctx is done.
	Shutdown(ctx context.Context) error
}
