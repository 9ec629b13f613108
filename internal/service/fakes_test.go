package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"shopadmin/catalog/internal/client"
	"shopadmin/catalog/internal/domain"
	"shopadmin/catalog/internal/domain/task"
	"shopadmin/catalog/internal/repository"
	"shopadmin/catalog/internal/state"

	"github.com/redis/go-redis/v9"
)

func cat(id, father string) domain.Category {
	c := domain.Category{ID: id, Title: "title-" + id}
	if father != "" {
		c.FatherID = &father
	}
	return c
}

// fakeBackend serves a fixed category listing and records mutations
type fakeBackend struct {
	mu         sync.Mutex
	categories []domain.Category
	products   map[string]*domain.Product
	page       *domain.ProductPage
	tags       []domain.Tag
	deliveries []domain.Delivery

	created    []domain.CategoryInput
	updated    map[string]domain.CategoryInput
	deleted    []string
	payloads   []domain.ProductPayload
	productErr error

	deletedProducts []string
	tagInputs       map[string]domain.TagInput
	assignments     []domain.TagAssignment
	deliveryInputs  map[string]domain.DeliveryInput
	deletedTags     []string
}

var _ client.BackendClient = (*fakeBackend)(nil)

func newFakeBackend(categories ...domain.Category) *fakeBackend {
	return &fakeBackend{
		categories: categories,
		products:   map[string]*domain.Product{},
		updated:    map[string]domain.CategoryInput{},

		tagInputs:      map[string]domain.TagInput{},
		deliveryInputs: map[string]domain.DeliveryInput{},
	}
}

func (b *fakeBackend) Login(context.Context, string, string) (*domain.Admin, error) {
	return &domain.Admin{Token: "token"}, nil
}

func (b *fakeBackend) ListCategories(context.Context) ([]domain.Category, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]domain.Category(nil), b.categories...), nil
}

func (b *fakeBackend) CreateCategory(_ context.Context, in domain.CategoryInput) (*domain.Category, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.created = append(b.created, in)
	return &domain.Category{ID: fmt.Sprintf("new-%d", len(b.created)), Title: in.Title, FatherID: in.FatherID}, nil
}

func (b *fakeBackend) UpdateCategory(_ context.Context, id string, in domain.CategoryInput) (*domain.Category, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.updated[id] = in
	return &domain.Category{ID: id, Title: in.Title, FatherID: in.FatherID}, nil
}

func (b *fakeBackend) DeleteCategory(_ context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.deleted = append(b.deleted, id)
	return nil
}

func (b *fakeBackend) GetProduct(_ context.Context, id string) (*domain.Product, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.products[id]
	if !ok {
		return nil, fmt.Errorf("%w: product %s", client.ErrNotFound, id)
	}
	return p, nil
}

func (b *fakeBackend) ListProducts(context.Context, domain.ProductQuery) (*domain.ProductPage, error) {
	if b.page == nil {
		return &domain.ProductPage{}, nil
	}
	return b.page, nil
}

func (b *fakeBackend) CreateProduct(_ context.Context, p domain.ProductPayload) (*domain.Product, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.productErr != nil {
		return nil, b.productErr
	}
	b.payloads = append(b.payloads, p)
	return &domain.Product{ID: "p-created", Name: p.Name}, nil
}

func (b *fakeBackend) UpdateProduct(_ context.Context, id string, p domain.ProductPayload) (*domain.Product, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.productErr != nil {
		return nil, b.productErr
	}
	b.payloads = append(b.payloads, p)
	return &domain.Product{ID: id, Name: p.Name}, nil
}

func (b *fakeBackend) DeleteProduct(_ context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.products[id]; !ok {
		return fmt.Errorf("%w: product %s", client.ErrNotFound, id)
	}
	delete(b.products, id)
	b.deletedProducts = append(b.deletedProducts, id)
	return nil
}

func (b *fakeBackend) ListTags(context.Context) ([]domain.Tag, error) { return b.tags, nil }

func (b *fakeBackend) CreateTag(_ context.Context, in domain.TagInput) (*domain.Tag, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := fmt.Sprintf("t-%d", len(b.tagInputs)+1)
	b.tagInputs[id] = in
	return &domain.Tag{ID: id, Title: in.Title, OgTitle: in.OgTitle}, nil
}

func (b *fakeBackend) UpdateTag(_ context.Context, id string, in domain.TagInput) (*domain.Tag, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tagInputs[id] = in
	return &domain.Tag{ID: id, Title: in.Title, OgTitle: in.OgTitle}, nil
}

func (b *fakeBackend) DeleteTag(_ context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.deletedTags = append(b.deletedTags, id)
	return nil
}

func (b *fakeBackend) AssignTag(_ context.Context, productID, tagID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.assignments = append(b.assignments, domain.TagAssignment{ProductID: productID, TagID: tagID})
	return nil
}

func (b *fakeBackend) UnassignTag(_ context.Context, productID, tagID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, a := range b.assignments {
		if a.ProductID == productID && a.TagID == tagID {
			b.assignments = append(b.assignments[:i], b.assignments[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: tag %s on product %s", client.ErrNotFound, tagID, productID)
}

func (b *fakeBackend) ListDeliveries(context.Context) ([]domain.Delivery, error) {
	return b.deliveries, nil
}

func (b *fakeBackend) CreateDelivery(_ context.Context, in domain.DeliveryInput) (*domain.Delivery, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := fmt.Sprintf("d-%d", len(b.deliveryInputs)+1)
	b.deliveryInputs[id] = in
	return &domain.Delivery{ID: id, DeliveryType: in.DeliveryType, Rate: in.Rate}, nil
}

func (b *fakeBackend) UpdateDelivery(_ context.Context, id string, in domain.DeliveryInput) (*domain.Delivery, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.deliveryInputs[id] = in
	return &domain.Delivery{ID: id, DeliveryType: in.DeliveryType, Rate: in.Rate}, nil
}

func (b *fakeBackend) DeleteDelivery(_ context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.deliveryInputs, id)
	return nil
}

type memDrafts struct {
	mu     sync.Mutex
	drafts map[string]state.Draft
}

func newMemDrafts() *memDrafts {
	return &memDrafts{drafts: map[string]state.Draft{}}
}

func (m *memDrafts) GetDraft(_ context.Context, id string) (*state.Draft, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.drafts[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", state.ErrDraftNotFound, id)
	}
	return &d, nil
}

func (m *memDrafts) SaveDraft(_ context.Context, d *state.Draft) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d.UpdatedAt = time.Now()
	m.drafts[d.ID] = *d
	return nil
}

func (m *memDrafts) DeleteDraft(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.drafts, id)
	return nil
}

// fakeQueue keeps added tasks in memory and hands them out as stream messages
type fakeQueue struct {
	mu    sync.Mutex
	tasks []task.Task
	acked []string
}

func (q *fakeQueue) AddTask(_ context.Context, t task.Task) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.tasks = append(q.tasks, t)
	return fmt.Sprintf("%d-0", len(q.tasks)), nil
}

func (q *fakeQueue) GetTask(context.Context, string, string, string) (*redis.XMessage, error) {
	return nil, nil
}

func (q *fakeQueue) AckTask(_ context.Context, _, _, msgID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.acked = append(q.acked, msgID)
	return nil
}

func (q *fakeQueue) CreateGroup(context.Context, string, string) error { return nil }

func (q *fakeQueue) AutoClaim(context.Context, string, string, string, time.Duration) ([]redis.XMessage, error) {
	return nil, nil
}

func (q *fakeQueue) EnsureStreamsExist(context.Context) error { return nil }

func message(id string, t task.Task) *redis.XMessage {
	data, err := t.TaskValue()
	if err != nil {
		panic(err)
	}
	return &redis.XMessage{
		ID: id,
		Values: map[string]interface{}{
			"task_type": t.TaskType(),
			"task_data": string(data),
		},
	}
}

type memSubmissions struct {
	mu      sync.Mutex
	records map[string]repository.Submission
	history []repository.SubmissionStatus
	saveErr error
}

func newMemSubmissions() *memSubmissions {
	return &memSubmissions{records: map[string]repository.Submission{}}
}

func (m *memSubmissions) SaveSubmission(_ context.Context, s *repository.Submission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.records[s.ID] = *s
	m.history = append(m.history, s.Status)
	return nil
}

func (m *memSubmissions) GetSubmission(_ context.Context, id string) (*repository.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.records[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", repository.ErrSubmissionNotFound, id)
	}
	return &s, nil
}
