package service

import (
	"context"
	"errors"
	"fmt"

	"shopadmin/catalog/internal/categorytree"
	"shopadmin/catalog/internal/client"
	"shopadmin/catalog/internal/domain"
	"shopadmin/catalog/internal/domain/task"
	"shopadmin/catalog/internal/queue"
	"shopadmin/catalog/internal/repository"
	"shopadmin/catalog/internal/selector"
	"shopadmin/catalog/internal/state"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// Editor drives the product form's category picker. Each open form is a
// draft in the DraftStore; every operation loads the draft, applies one
// selector transition against a freshly built forest and saves it back.
type Editor struct {
	catalog     *Catalog
	client      client.BackendClient
	drafts      state.DraftStore
	queue       queue.Queue
	submissions repository.SubmissionRepository
}

func NewEditor(
	catalog *Catalog,
	client client.BackendClient,
	drafts state.DraftStore,
	queue queue.Queue,
	submissions repository.SubmissionRepository,
) *Editor {
	return &Editor{
		catalog:     catalog,
		client:      client,
		drafts:      drafts,
		queue:       queue,
		submissions: submissions,
	}
}

// DraftView is everything the picker renders
type DraftView struct {
	DraftID   string           `json:"draftId"`
	ProductID string           `json:"productId,omitempty"`
	Levels    []selector.Level `json:"levels"`
	Committed []CategoryPath   `json:"committed"`
	CanCommit bool             `json:"canCommit"`
	TagIDs    []string         `json:"tagIds"`
	Missing   []string         `json:"missing,omitempty"`

	SubmissionID string `json:"submissionId,omitempty"`
}

func newDraftView(f *categorytree.Forest, d *state.Draft) *DraftView {
	v := &DraftView{
		DraftID:   d.ID,
		ProductID: d.ProductID,
		Levels:    selector.Levels(f, d.Selection),
		Committed: make([]CategoryPath, 0, len(d.Selection.Committed)),
		CanCommit: selector.CanCommit(f, d.Selection),
		TagIDs:    d.TagIDs,
		Missing:   d.Missing,

		SubmissionID: d.SubmissionID,
	}
	if v.TagIDs == nil {
		v.TagIDs = []string{}
	}
	for _, p := range d.Selection.Committed {
		v.Committed = append(v.Committed, newCategoryPath(f, p))
	}
	return v
}

// Open starts a draft. With a product id the committed paths and tags are
// hydrated from the product's current assignments.
func (e *Editor) Open(ctx context.Context, productID string) (*DraftView, error) {
	forest, err := e.catalog.Forest(ctx)
	if err != nil {
		return nil, err
	}

	draft := &state.Draft{
		ID:        uuid.NewString(),
		ProductID: productID,
		Selection: selector.State{Steps: []string{}, Committed: [][]string{}},
	}

	if productID != "" {
		product, err := e.client.GetProduct(ctx, productID)
		if err != nil {
			return nil, err
		}
		draft.Selection, draft.Missing = selector.Hydrate(forest, product.CategoryIDs())
		draft.TagIDs = product.TagIDs()
		if len(draft.Missing) > 0 {
			log.Warnf("⚠️ Product %s is assigned to categories outside the tree: %v", productID, draft.Missing)
		}
	}

	if err := e.drafts.SaveDraft(ctx, draft); err != nil {
		return nil, err
	}

	log.Debugf("Opened draft %s for product %q", draft.ID, productID)
	return newDraftView(forest, draft), nil
}

func (e *Editor) View(ctx context.Context, draftID string) (*DraftView, error) {
	return e.apply(ctx, draftID, nil)
}

func (e *Editor) Choose(ctx context.Context, draftID string, level int, categoryID string) (*DraftView, error) {
	return e.apply(ctx, draftID, func(f *categorytree.Forest, s selector.State) (selector.State, error) {
		return selector.ChooseAtLevel(f, s, level, categoryID)
	})
}

func (e *Editor) Clear(ctx context.Context, draftID string, level int) (*DraftView, error) {
	return e.apply(ctx, draftID, func(_ *categorytree.Forest, s selector.State) (selector.State, error) {
		return selector.ClearFromLevel(s, level), nil
	})
}

func (e *Editor) Commit(ctx context.Context, draftID string) (*DraftView, error) {
	return e.apply(ctx, draftID, func(f *categorytree.Forest, s selector.State) (selector.State, error) {
		return selector.CommitCurrentPath(f, s)
	})
}

func (e *Editor) Remove(ctx context.Context, draftID, leafID string) (*DraftView, error) {
	return e.apply(ctx, draftID, func(_ *categorytree.Forest, s selector.State) (selector.State, error) {
		return selector.RemoveCommittedPath(s, leafID), nil
	})
}

func (e *Editor) Discard(ctx context.Context, draftID string) error {
	return e.drafts.DeleteDraft(ctx, draftID)
}

func (e *Editor) apply(
	ctx context.Context,
	draftID string,
	transition func(*categorytree.Forest, selector.State) (selector.State, error),
) (*DraftView, error) {
	draft, err := e.drafts.GetDraft(ctx, draftID)
	if err != nil {
		return nil, err
	}

	forest, err := e.catalog.Forest(ctx)
	if err != nil {
		return nil, err
	}

	if transition != nil {
		next, err := transition(forest, draft.Selection)
		if err != nil {
			return nil, err
		}
		draft.Selection = next
		if err := e.drafts.SaveDraft(ctx, draft); err != nil {
			return nil, err
		}
	}

	return newDraftView(forest, draft), nil
}

// Receipt identifies a queued submission
type Receipt struct {
	SubmissionID string   `json:"submissionId"`
	MessageID    string   `json:"messageId"`
	CategoryIDs  []string `json:"categoryIds"`
}

var (
	ErrPendingSelection  = errors.New("draft has an uncommitted category selection")
	ErrSubmissionPending = errors.New("draft already has a submission in progress")
)

// Submit queues the product create/update carrying the draft's leaf ids.
// A half-built cursor is refused so a selection is never lost silently, and
// so is a second submit while the first is still queued or retrying.
func (e *Editor) Submit(ctx context.Context, draftID string, fields domain.ProductFields) (*Receipt, error) {
	draft, err := e.drafts.GetDraft(ctx, draftID)
	if err != nil {
		return nil, err
	}
	if err := e.settleLastSubmission(ctx, draft); err != nil {
		return nil, err
	}
	if len(draft.Selection.Steps) > 0 {
		return nil, ErrPendingSelection
	}

	// a form that leaves tags out keeps the ones the product was opened with
	if fields.TagIDs == nil {
		fields.TagIDs = draft.TagIDs
	}

	leaves := selector.LeafIDs(draft.Selection)
	t := &task.SubmitProductTask{
		SubmissionID: uuid.NewString(),
		DraftID:      draft.ID,
		ProductID:    draft.ProductID,
		Paths:        draft.Selection.Committed,
		Payload: domain.ProductPayload{
			ProductFields: fields,
			CategoryIDs:   leaves,
		},
	}

	record := &repository.Submission{
		ID:          t.SubmissionID,
		DraftID:     t.DraftID,
		ProductID:   t.ProductID,
		Paths:       t.Paths,
		CategoryIDs: leaves,
		Status:      repository.SubmissionQueued,
	}
	if err := e.submissions.SaveSubmission(ctx, record); err != nil {
		return nil, err
	}

	draft.SubmissionID = t.SubmissionID
	if err := e.drafts.SaveDraft(ctx, draft); err != nil {
		return nil, err
	}

	messageID, err := e.queue.AddTask(ctx, t)
	if err != nil {
		record.Status = repository.SubmissionAbandoned
		record.LastError = err.Error()
		if saveErr := e.submissions.SaveSubmission(ctx, record); saveErr != nil {
			log.Errorf("❌ Failed to mark submission %s abandoned: %v", t.SubmissionID, saveErr)
		}
		return nil, fmt.Errorf("failed to queue submission %s: %w", t.SubmissionID, err)
	}

	log.Infof("📤 Queued submission %s for draft %s (%d categories)", t.SubmissionID, draftID, len(leaves))
	return &Receipt{SubmissionID: t.SubmissionID, MessageID: messageID, CategoryIDs: leaves}, nil
}

// settleLastSubmission refuses a draft whose last submission is still in
// flight. When that submission created the product, later submits update it.
func (e *Editor) settleLastSubmission(ctx context.Context, draft *state.Draft) error {
	if draft.SubmissionID == "" {
		return nil
	}
	last, err := e.submissions.GetSubmission(ctx, draft.SubmissionID)
	if errors.Is(err, repository.ErrSubmissionNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	switch last.Status {
	case repository.SubmissionQueued, repository.SubmissionRetrying:
		return fmt.Errorf("%w: %s", ErrSubmissionPending, last.ID)
	case repository.SubmissionApplied:
		if draft.ProductID == "" {
			draft.ProductID = last.ProductID
		}
	}
	return nil
}

func (e *Editor) Submission(ctx context.Context, id string) (*repository.Submission, error) {
	return e.submissions.GetSubmission(ctx, id)
}
