// Package services holds the application service layer. DataService owns
// the in-memory record set for the session and answers filter, dashboard
// and export queries over it; HealthService reports process and dependency
// health for the health endpoints.
package services
