// Package sync holds the domain types shared by the synchronization services.
package sync

import "fmt"

// Result is the structured outcome of one synchronization run. Orchestration
// converts upstream failures into a Result instead of propagating, so a
// scheduled job can log and stop rather than crash the worker.
type Result struct {
	Success bool   `json:"success"`
	Count   int    `json:"count"`
	Message string `json:"message"`
}

// Ok builds a successful result.
func Ok(count int, format string, args ...any) Result {
	return Result{Success: true, Count: count, Message: fmt.Sprintf(format, args...)}
}

// Fail builds a failed result.
func Fail(format string, args ...any) Result {
	return Result{Success: false, Message: fmt.Sprintf(format, args...)}
}
