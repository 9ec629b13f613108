package task

import "shopadmin/catalog/internal/domain"

// SubmitProductTask carries one product form submission to the backend.
// An empty ProductID means create.
type SubmitProductTask struct {
	SubmissionID string                `json:"submission_id"`
	DraftID      string                `json:"draft_id"`
	ProductID    string                `json:"product_id,omitempty"`
	Paths        [][]string            `json:"paths"` // committed root-to-leaf paths
	Payload      domain.ProductPayload `json:"payload"`
}

func (t *SubmitProductTask) TaskType() string {
	return TypeSubmitProduct
}

func (t *SubmitProductTask) TaskValue() ([]byte, error) {
	return DefaultTaskValue(t)
}

func (t *SubmitProductTask) IsCreate() bool {
	return t.ProductID == ""
}
