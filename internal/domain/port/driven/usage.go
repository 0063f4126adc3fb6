package driven

// UsageRecorder receives metering outcomes from the request pipeline.
// Implementations must be safe for concurrent use and must not block.
type UsageRecorder interface {
	// Debited is called after credits were successfully charged.
	Debited(operation string, amount int64)
	// Rejected is called when an operation ends in an error of the given kind.
	Rejected(operation string, kind string)
}
