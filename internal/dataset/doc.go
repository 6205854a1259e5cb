// Package dataset implements the market share data pipeline: loading
// survey rows from Excel workbooks, applying categorical filters, and
// aggregating the results for the dashboard.
//
// The pipeline has three stages:
//
//	loader  - parses .xlsx/.xlsm workbooks into a domain.RecordSet,
//	          normalizing headers and blank categorical cells
//	filter  - applies conjunctive multi-select filters and computes
//	          the distinct option lists for the sidebar
//	summary - computes KPI counters, group counts and concentration
//	          statistics for charts and tables
//
// All stages operate on immutable snapshots; the owning service replaces
// the active RecordSet wholesale when a new workbook is uploaded.
package dataset
