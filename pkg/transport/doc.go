// Package transport provides the HTTP plumbing shared by all endpoints:
// middleware (request ID, logging, recovery), envelope response writers,
// and the SSE stream writer used by the demo endpoints.
//
// The concrete route handlers live in the http subpackage; this package
// holds the pieces that are independent of any particular endpoint.
package transport
