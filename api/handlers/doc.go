// Package handlers implements the HTTP surface of the greenlight service.
// Every endpoint answers with the shared Response envelope and maps the
// domain error codes onto HTTP status codes in one place.
package handlers
