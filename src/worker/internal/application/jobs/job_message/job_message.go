package job_message

// RunIdentifier is embedded in every job param struct so the router can
// tie any job back to its separation run record.
type RunIdentifier struct {
	RunID string `json:"run_id"`
}
