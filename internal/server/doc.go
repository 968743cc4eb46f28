// Package server implements the HTTP surface of the upload service. It
// wires the routes, the middleware chain (CORS, request ids, request
// logging, security headers) and provides lifecycle helpers used by tests
// and the production binary.
package server
