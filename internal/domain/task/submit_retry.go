package task

import "time"

type SubmitRetryTask struct {
	Submission SubmitProductTask `json:"submission"`
	RetryCount int               `json:"retry_count"` // Backend attempts that already failed
	Error      string            `json:"error"`       // Error message from the last failure
	NotBefore  time.Time         `json:"not_before"`  // Earliest time of the next attempt
}

func (t *SubmitRetryTask) TaskType() string {
	return TypeSubmitRetry
}

func (t *SubmitRetryTask) TaskValue() ([]byte, error) {
	return DefaultTaskValue(t)
}
