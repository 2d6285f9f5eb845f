package ir

const (
	// IRVersion is the schema version of recorded invocations and completions.
	IRVersion = "1"

	// EngineVersion is the version of the run engine.
	EngineVersion = "0.1.0"
)
