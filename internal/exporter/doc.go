// Package exporter provides CSV export functionality for ShareScope.
//
// This package contains two main components:
//
// CSVWriter: Core CSV writing functionality with support for headers,
// streaming, and UTF-8 BOM for Excel compatibility.
//
// Record export helpers: render filtered record sets and group-count
// frequency tables as CSV, used by both the HTTP export endpoint and
// the report CLI.
//
// Example usage:
//
//	writer := exporter.NewCSVWriter(paths)
//	err := writer.WriteGroupCounts("industry_counts.csv", "Industry", counts)
package exporter
