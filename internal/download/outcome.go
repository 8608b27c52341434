package download

// Status is the terminal state of one manifest entry.
type Status string

const (
	StatusSuccess Status = "success"
	StatusExists  Status = "exists"
	StatusFail    Status = "fail"
)

// Outcome records what happened to one entry.
type Outcome struct {
	ID     string `json:"id"`
	Status Status `json:"status"`
	File   string `json:"file,omitempty"`
	Reason string `json:"reason,omitempty"`
	Bytes  int64  `json:"bytes,omitempty"`
	// Kind classifies failures (see services.FailureKind).
	Kind string `json:"kind,omitempty"`
}

// Summary counts outcomes by status.
type Summary struct {
	Success int
	Exists  int
	Fail    int
}

// Summarize tallies outcomes.
func Summarize(outcomes []Outcome) Summary {
	var s Summary
	for _, o := range outcomes {
		switch o.Status {
		case StatusSuccess:
			s.Success++
		case StatusExists:
			s.Exists++
		default:
			s.Fail++
		}
	}
	return s
}
