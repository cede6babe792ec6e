// Package filter provides reusable DataFilters and a registry that creates
// them by identifier.
//
// GlobFilter selects input files by path; its globs may reference batch
// arguments as ${name}. RecordFunc and All build record-level predicates.
package filter
