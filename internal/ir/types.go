package ir

// Invocation records a call into a collaborator or host method.
type Invocation struct {
	ID            string `json:"id"`
	RunToken      string `json:"run_token"`
	Action        string `json:"action"` // e.g. "Encoder.encode"
	Args          Object `json:"args"`
	Seq           int64  `json:"seq"`
	EngineVersion string `json:"engine_version"`
	IRVersion     string `json:"ir_version"`
}

// Completion records how an invocation returned.
type Completion struct {
	ID           string `json:"id"`
	InvocationID string `json:"invocation_id"`
	Outcome      string `json:"outcome"` // OutcomeOK or OutcomeError
	Result       Object `json:"result"`
	Seq          int64  `json:"seq"`
}

// Completion outcomes.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)
