// Package directio defines the contracts of a pluggable storage layer for
// batch jobs.
//
// Data sources (backends) are mounted on logical path prefixes and resolved
// by longest prefix (see the repository package). Each data source implements
// the DataSource contract: fragment planning and opening for reads, and a
// staged commit protocol for writes that keeps retried and speculative task
// attempts from producing partial output:
//
//	SetupTransactionOutput   once per job output, before any attempt
//	SetupAttemptOutput       per attempt
//	OpenOutput               writes land in the attempt area
//	CommitAttemptOutput      attempt area -> staging area
//	CleanupAttemptOutput     always, whether or not the attempt committed
//	CommitTransactionOutput  staging area -> final area, idempotent
//	CleanupTransactionOutput removes the staging area
//
// The package holds no storage driver, record codec or scheduler; those are
// supplied by callers through DataFormat, Factory and the transaction package.
package directio
