package output

// Event is a lifecycle record for NDJSON streaming output.
//
// In NDJSON mode, sinks emit Events (one JSON object per line), including:
// - run.started
// - target.started
// - context.extracted
// - target.result
// - target.finished
// - run.finished
//
// JSON mode remains an aggregate of TargetResult values.
type Event struct {
	Type   string `json:"type"`
	RunID  string `json:"run_id,omitempty"`
	Target string `json:"target,omitempty"`
	*TargetResult
	Targets  int `json:"targets,omitempty"`
	Files    int `json:"files,omitempty"`
	KeyFiles int `json:"key_files,omitempty"`
	Skipped  int `json:"skipped_key_files,omitempty"`
	ExitCode int `json:"exit_code,omitempty"`
}

const (
	EventRunStarted       = "run.started"
	EventTargetStarted    = "target.started"
	EventContextExtracted = "context.extracted"
	EventTargetResult     = "target.result"
	EventTargetFinished   = "target.finished"
	EventRunFinished      = "run.finished"
)

func eventFromResult(r TargetResult) Event {
	return Event{Type: EventTargetResult, RunID: r.RunID, Target: r.Target, TargetResult: &r}
}
