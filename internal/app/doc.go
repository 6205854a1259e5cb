// Package app wires the application together: configuration, logging,
// services, the chi router with its middleware chain, the WebSocket hub
// and the HTTP server lifecycle.
package app
