package output

// Status of a single target's run.
type Status string

const (
	StatusOK     Status = "OK"
	StatusError  Status = "ERROR"
	StatusDryRun Status = "DRY-RUN"
)

// TargetResult is the outcome for one target repository.
type TargetResult struct {
	RunID   string `json:"run_id,omitempty"`
	Target  string `json:"target"`
	Status  Status `json:"status"`
	Path    string `json:"path,omitempty"`
	Bytes   int    `json:"bytes"`
	Message string `json:"message,omitempty"`
}
