// Package server wires and runs the application's transport servers.
//
// It provides orchestration for HTTP and gRPC server lifecycles, including
// startup and graceful shutdown of all enabled transports once the caller
// cancels the run context.
package server
