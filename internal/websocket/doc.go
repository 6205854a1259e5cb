// Package websocket provides the real-time notification channel for the
// dashboard. A single Hub fans broadcast messages out to every connected
// browser; the server pushes a refresh event whenever a new workbook is
// loaded so that open dashboards re-query their data.
package websocket
