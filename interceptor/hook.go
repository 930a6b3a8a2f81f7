package interceptor

// Hook identifies a lifecycle point at which interceptors run.
//
// Read hooks observe the context; Modify hooks may change the request,
// response or output available at that point. Hooks are listed in the order
// the orchestrator invokes them.
type Hook int

const (
	ReadBeforeExecution Hook = iota
	ModifyBeforeSerialization
	ReadBeforeSerialization
	ReadAfterSerialization
	ModifyBeforeRetryLoop
	ReadBeforeAttempt
	ModifyBeforeSigning
	ReadBeforeSigning
	ReadAfterSigning
	ModifyBeforeTransmit
	ReadBeforeTransmit
	ReadAfterTransmit
	ModifyBeforeDeserialization
	ReadBeforeDeserialization
	ReadAfterDeserialization
	ModifyBeforeAttemptCompletion
	ReadAfterAttempt
	ModifyBeforeCompletion
	ReadAfterExecution
)

var hookNames = [...]string{
	ReadBeforeExecution:           "read_before_execution",
	ModifyBeforeSerialization:     "modify_before_serialization",
	ReadBeforeSerialization:       "read_before_serialization",
	ReadAfterSerialization:        "read_after_serialization",
	ModifyBeforeRetryLoop:         "modify_before_retry_loop",
	ReadBeforeAttempt:             "read_before_attempt",
	ModifyBeforeSigning:           "modify_before_signing",
	ReadBeforeSigning:             "read_before_signing",
	ReadAfterSigning:              "read_after_signing",
	ModifyBeforeTransmit:          "modify_before_transmit",
	ReadBeforeTransmit:            "read_before_transmit",
	ReadAfterTransmit:             "read_after_transmit",
	ModifyBeforeDeserialization:   "modify_before_deserialization",
	ReadBeforeDeserialization:     "read_before_deserialization",
	ReadAfterDeserialization:      "read_after_deserialization",
	ModifyBeforeAttemptCompletion: "modify_before_attempt_completion",
	ReadAfterAttempt:              "read_after_attempt",
	ModifyBeforeCompletion:        "modify_before_completion",
	ReadAfterExecution:            "read_after_execution",
}

func (h Hook) String() string {
	if h < 0 || int(h) >= len(hookNames) {
		return "unknown_hook"
	}
	return hookNames[h]
}

// Modifies reports whether interceptors may mutate the context at h.
func (h Hook) Modifies() bool {
	switch h {
	case ModifyBeforeSerialization, ModifyBeforeRetryLoop, ModifyBeforeSigning,
		ModifyBeforeTransmit, ModifyBeforeDeserialization,
		ModifyBeforeAttemptCompletion, ModifyBeforeCompletion:
		return true
	}
	return false
}

// PerAttempt reports whether h runs once per attempt rather than once per
// operation.
func (h Hook) PerAttempt() bool {
	return h >= ReadBeforeAttempt && h <= ReadAfterAttempt
}

// Hooks returns every hook in invocation order.
func Hooks() []Hook {
	hooks := make([]Hook, len(hookNames))
	for i := range hookNames {
		hooks[i] = Hook(i)
	}
	return hooks
}
