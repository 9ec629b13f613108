package service

import (
	"context"
	"testing"

	"shopadmin/catalog/internal/domain"
	"shopadmin/catalog/internal/domain/task"
	"shopadmin/catalog/internal/repository"
	"shopadmin/catalog/internal/selector"
	"shopadmin/catalog/internal/state"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type editorFixture struct {
	backend     *fakeBackend
	drafts      *memDrafts
	queue       *fakeQueue
	submissions *memSubmissions
	editor      *Editor
}

func newEditorFixture() *editorFixture {
	f := &editorFixture{
		backend:     sampleBackend(),
		drafts:      newMemDrafts(),
		queue:       &fakeQueue{},
		submissions: newMemSubmissions(),
	}
	f.editor = NewEditor(newTestCatalog(f.backend), f.backend, f.drafts, f.queue, f.submissions)
	return f
}

func TestEditorOpenNewDraft(t *testing.T) {
	f := newEditorFixture()

	v, err := f.editor.Open(context.Background(), "")
	require.NoError(t, err)
	assert.NotEmpty(t, v.DraftID)
	assert.Empty(t, v.Committed)
	assert.False(t, v.CanCommit)
	require.Len(t, v.Levels, 1)
	assert.Equal(t, []selector.Option{
		{ID: "1", Title: "title-1", Leaf: false},
		{ID: "5", Title: "title-5", Leaf: true},
	}, v.Levels[0].Options)

	_, err = f.drafts.GetDraft(context.Background(), v.DraftID)
	assert.NoError(t, err)
}

func TestEditorOpenHydratesProduct(t *testing.T) {
	f := newEditorFixture()
	f.backend.products["p1"] = &domain.Product{
		ID:           "p1",
		TagOnProduct: []domain.TagOnProduct{{TagID: "t1"}, {TagID: "t2"}},
		CategoriesOnProduct: []domain.CategoryOnProduct{
			{CategoryID: "4"},
			{CategoryID: "6"},
			{CategoryID: "5"},
		},
	}

	v, err := f.editor.Open(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "p1", v.ProductID)
	require.Len(t, v.Committed, 2)
	assert.Equal(t, []string{"1", "2", "4"}, v.Committed[0].IDs)
	assert.Equal(t, []string{"5"}, v.Committed[1].IDs)
	assert.Equal(t, []string{"6"}, v.Missing)
	assert.Equal(t, []string{"t1", "t2"}, v.TagIDs)
}

func TestEditorSubmitKeepsProductTags(t *testing.T) {
	ctx := context.Background()
	f := newEditorFixture()
	f.backend.products["p1"] = &domain.Product{
		ID:                  "p1",
		TagOnProduct:        []domain.TagOnProduct{{TagID: "t1"}},
		CategoriesOnProduct: []domain.CategoryOnProduct{{CategoryID: "5"}},
	}

	v, err := f.editor.Open(ctx, "p1")
	require.NoError(t, err)
	_, err = f.editor.Submit(ctx, v.DraftID, domain.ProductFields{Name: "Parka", Slug: "parka"})
	require.NoError(t, err)

	require.Len(t, f.queue.tasks, 1)
	queued := f.queue.tasks[0].(*task.SubmitProductTask)
	assert.Equal(t, "p1", queued.ProductID)
	assert.Equal(t, []string{"t1"}, queued.Payload.TagIDs)
}

func TestEditorChooseCommitRemove(t *testing.T) {
	ctx := context.Background()
	f := newEditorFixture()

	v, err := f.editor.Open(ctx, "")
	require.NoError(t, err)
	id := v.DraftID

	v, err = f.editor.Choose(ctx, id, 0, "1")
	require.NoError(t, err)
	require.Len(t, v.Levels, 2)
	assert.Equal(t, "1", v.Levels[0].Selected)
	assert.True(t, v.CanCommit)

	v, err = f.editor.Choose(ctx, id, 1, "2")
	require.NoError(t, err)
	v, err = f.editor.Choose(ctx, id, 2, "4")
	require.NoError(t, err)
	assert.Len(t, v.Levels, 3)

	v, err = f.editor.Commit(ctx, id)
	require.NoError(t, err)
	require.Len(t, v.Committed, 1)
	assert.Equal(t, "4", v.Committed[0].Leaf)
	assert.Equal(t, []string{"title-1", "title-2", "title-4"}, v.Committed[0].Titles)
	assert.Len(t, v.Levels, 1, "cursor resets after commit")

	_, err = f.editor.Choose(ctx, id, 0, "1")
	require.NoError(t, err)
	_, err = f.editor.Choose(ctx, id, 1, "2")
	require.NoError(t, err)
	_, err = f.editor.Choose(ctx, id, 2, "4")
	require.NoError(t, err)
	_, err = f.editor.Commit(ctx, id)
	assert.ErrorIs(t, err, selector.ErrDuplicateLeaf)

	v, err = f.editor.Clear(ctx, id, 0)
	require.NoError(t, err)
	assert.False(t, v.CanCommit)

	v, err = f.editor.Remove(ctx, id, "4")
	require.NoError(t, err)
	assert.Empty(t, v.Committed)

	v, err = f.editor.Remove(ctx, id, "4")
	require.NoError(t, err, "removal is idempotent")
	assert.Empty(t, v.Committed)
}

func TestEditorRejectsInvalidChoiceWithoutSaving(t *testing.T) {
	ctx := context.Background()
	f := newEditorFixture()

	v, err := f.editor.Open(ctx, "")
	require.NoError(t, err)

	_, err = f.editor.Choose(ctx, v.DraftID, 0, "2")
	assert.ErrorIs(t, err, selector.ErrInvalidSelection)

	_, err = f.editor.Choose(ctx, v.DraftID, 3, "1")
	assert.ErrorIs(t, err, selector.ErrInvalidLevel)

	d, err := f.drafts.GetDraft(ctx, v.DraftID)
	require.NoError(t, err)
	assert.Empty(t, d.Selection.Steps)
}

func TestEditorUnknownDraft(t *testing.T) {
	_, err := newEditorFixture().editor.View(context.Background(), "nope")
	assert.ErrorIs(t, err, state.ErrDraftNotFound)
}

func TestEditorSubmitQueuesLeafIDs(t *testing.T) {
	ctx := context.Background()
	f := newEditorFixture()

	v, err := f.editor.Open(ctx, "")
	require.NoError(t, err)
	id := v.DraftID
	for level, c := range []string{"1", "2", "4"} {
		_, err = f.editor.Choose(ctx, id, level, c)
		require.NoError(t, err)
	}
	_, err = f.editor.Commit(ctx, id)
	require.NoError(t, err)
	_, err = f.editor.Choose(ctx, id, 0, "5")
	require.NoError(t, err)

	_, err = f.editor.Submit(ctx, id, domain.ProductFields{Name: "Parka", Slug: "parka"})
	assert.ErrorIs(t, err, ErrPendingSelection)
	assert.Empty(t, f.queue.tasks)

	_, err = f.editor.Commit(ctx, id)
	require.NoError(t, err)

	receipt, err := f.editor.Submit(ctx, id, domain.ProductFields{Name: "Parka", Slug: "parka"})
	require.NoError(t, err)
	assert.Equal(t, []string{"4", "5"}, receipt.CategoryIDs)
	assert.Equal(t, "1-0", receipt.MessageID)

	require.Len(t, f.queue.tasks, 1)
	queued, ok := f.queue.tasks[0].(*task.SubmitProductTask)
	require.True(t, ok)
	assert.True(t, queued.IsCreate())
	assert.Equal(t, id, queued.DraftID)
	assert.Equal(t, []string{"4", "5"}, queued.Payload.CategoryIDs)
	assert.Equal(t, "Parka", queued.Payload.Name)
	assert.Equal(t, [][]string{{"1", "2", "4"}, {"5"}}, queued.Paths)

	sub, err := f.editor.Submission(ctx, receipt.SubmissionID)
	require.NoError(t, err)
	assert.Equal(t, repository.SubmissionQueued, sub.Status)
}

func TestEditorRefusesSecondSubmitWhileQueued(t *testing.T) {
	ctx := context.Background()
	f := newEditorFixture()
	fields := domain.ProductFields{Name: "Parka", Slug: "parka"}

	v, err := f.editor.Open(ctx, "")
	require.NoError(t, err)
	first, err := f.editor.Submit(ctx, v.DraftID, fields)
	require.NoError(t, err)

	_, err = f.editor.Submit(ctx, v.DraftID, fields)
	assert.ErrorIs(t, err, ErrSubmissionPending)
	assert.Len(t, f.queue.tasks, 1)

	view, err := f.editor.View(ctx, v.DraftID)
	require.NoError(t, err)
	assert.Equal(t, first.SubmissionID, view.SubmissionID)

	// still refused while the worker retries it
	sub, err := f.submissions.GetSubmission(ctx, first.SubmissionID)
	require.NoError(t, err)
	sub.Status = repository.SubmissionRetrying
	require.NoError(t, f.submissions.SaveSubmission(ctx, sub))
	_, err = f.editor.Submit(ctx, v.DraftID, fields)
	assert.ErrorIs(t, err, ErrSubmissionPending)
}

func TestEditorSubmitAfterCreateUpdates(t *testing.T) {
	ctx := context.Background()
	f := newEditorFixture()
	fields := domain.ProductFields{Name: "Parka", Slug: "parka"}

	v, err := f.editor.Open(ctx, "")
	require.NoError(t, err)
	first, err := f.editor.Submit(ctx, v.DraftID, fields)
	require.NoError(t, err)

	// the worker saved the product but never got to touch the draft
	sub, err := f.submissions.GetSubmission(ctx, first.SubmissionID)
	require.NoError(t, err)
	sub.Status = repository.SubmissionApplied
	sub.ProductID = "p-created"
	require.NoError(t, f.submissions.SaveSubmission(ctx, sub))

	_, err = f.editor.Submit(ctx, v.DraftID, fields)
	require.NoError(t, err)

	require.Len(t, f.queue.tasks, 2)
	second := f.queue.tasks[1].(*task.SubmitProductTask)
	assert.False(t, second.IsCreate())
	assert.Equal(t, "p-created", second.ProductID)
}

func TestEditorSubmitAfterAbandonedRetries(t *testing.T) {
	ctx := context.Background()
	f := newEditorFixture()
	fields := domain.ProductFields{Name: "Parka", Slug: "parka"}

	v, err := f.editor.Open(ctx, "")
	require.NoError(t, err)
	first, err := f.editor.Submit(ctx, v.DraftID, fields)
	require.NoError(t, err)

	sub, err := f.submissions.GetSubmission(ctx, first.SubmissionID)
	require.NoError(t, err)
	sub.Status = repository.SubmissionAbandoned
	require.NoError(t, f.submissions.SaveSubmission(ctx, sub))

	second, err := f.editor.Submit(ctx, v.DraftID, fields)
	require.NoError(t, err)
	assert.NotEqual(t, first.SubmissionID, second.SubmissionID)
	assert.True(t, f.queue.tasks[1].(*task.SubmitProductTask).IsCreate())
}

func TestEditorDiscard(t *testing.T) {
	ctx := context.Background()
	f := newEditorFixture()

	v, err := f.editor.Open(ctx, "")
	require.NoError(t, err)
	require.NoError(t, f.editor.Discard(ctx, v.DraftID))

	_, err = f.editor.View(ctx, v.DraftID)
	assert.ErrorIs(t, err, state.ErrDraftNotFound)
}
