// Package errors provides the structured error type shared by every directio
// package.
//
// Errors carry a code identifying the failure, a classification that tells a
// scheduler whether re-running the failed attempt can help, and free-form
// context (transaction ids, backend ids, paths) for log correlation across
// processes.
package errors
