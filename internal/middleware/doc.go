// Package middleware provides net/http middleware: the authentication
// gate, request ID propagation, panic recovery and access logging.
package middleware
