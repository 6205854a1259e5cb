// Package http contains the chi HTTP handlers for the dashboard API.
// Handlers translate between the wire format and the service layer and
// report failures as RFC 7807 problem responses.
package http
