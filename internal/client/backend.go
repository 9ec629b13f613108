package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"shopadmin/catalog/internal/config"
	"shopadmin/catalog/internal/domain"

	log "github.com/sirupsen/logrus"
	"go.uber.org/ratelimit"
	"resty.dev/v3"
)

var (
	ErrCircuitOpen  = errors.New("backend circuit breaker is open")
	ErrUnauthorized = errors.New("backend rejected credentials")
	ErrNotFound     = errors.New("backend resource not found")
)

// BackendClient talks to the e-commerce REST backend
type BackendClient interface {
	Login(ctx context.Context, username, password string) (*domain.Admin, error)

	ListCategories(ctx context.Context) ([]domain.Category, error)
	CreateCategory(ctx context.Context, in domain.CategoryInput) (*domain.Category, error)
	UpdateCategory(ctx context.Context, id string, in domain.CategoryInput) (*domain.Category, error)
	DeleteCategory(ctx context.Context, id string) error

	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	ListProducts(ctx context.Context, q domain.ProductQuery) (*domain.ProductPage, error)
	CreateProduct(ctx context.Context, p domain.ProductPayload) (*domain.Product, error)
	UpdateProduct(ctx context.Context, id string, p domain.ProductPayload) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id string) error

	ListTags(ctx context.Context) ([]domain.Tag, error)
	CreateTag(ctx context.Context, in domain.TagInput) (*domain.Tag, error)
	UpdateTag(ctx context.Context, id string, in domain.TagInput) (*domain.Tag, error)
	DeleteTag(ctx context.Context, id string) error
	AssignTag(ctx context.Context, productID, tagID string) error
	UnassignTag(ctx context.Context, productID, tagID string) error

	ListDeliveries(ctx context.Context) ([]domain.Delivery, error)
	CreateDelivery(ctx context.Context, in domain.DeliveryInput) (*domain.Delivery, error)
	UpdateDelivery(ctx context.Context, id string, in domain.DeliveryInput) (*domain.Delivery, error)
	DeleteDelivery(ctx context.Context, id string) error
}

// StatusError is a non-2xx backend answer
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("HTTP error: %d %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("HTTP error: %d", e.StatusCode)
}

// CircuitOpenError is returned without contacting the backend while the
// circuit breaker is open.
type CircuitOpenError struct {
	Remaining time.Duration
}

func (e *CircuitOpenError) Error() string {
	return fmt.Sprintf("%v for %v more", ErrCircuitOpen, e.Remaining.Round(time.Second))
}

func (e *CircuitOpenError) Unwrap() error {
	return ErrCircuitOpen
}

type backendClient struct {
	rl         ratelimit.Limiter
	config     config.BackendConfig
	httpClient *resty.Client

	tokenMutex sync.RWMutex
	token      string

	// Circuit breaker for 429/503 answers
	circuitBreakerMutex sync.RWMutex
	blockedUntil        time.Time
	circuitBreakerDelay time.Duration
}

func NewBackendClient(cfg config.BackendConfig) BackendClient {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(time.Duration(cfg.Timeout)*time.Second).
		SetRetryCount(cfg.MaxRetries).
		SetRetryWaitTime(500*time.Millisecond).
		SetRetryMaxWaitTime(5*time.Second).
		SetHeader("Accept", "application/json").
		SetHeader("Content-Type", "application/json")

	rps := cfg.MaxRequestsPerSecond
	var rl ratelimit.Limiter
	if rps > 0 {
		rl = ratelimit.New(rps)
	} else {
		rl = ratelimit.NewUnlimited()
	}

	return &backendClient{
		rl:                  rl,
		config:              cfg,
		httpClient:          client,
		token:               cfg.Token,
		circuitBreakerDelay: time.Duration(cfg.CircuitBreakerDelay) * time.Second,
	}
}

func (c *backendClient) Login(ctx context.Context, username, password string) (*domain.Admin, error) {
	var result domain.LoginResult
	body := map[string]string{"username": username, "password": password}
	if _, err := c.do(ctx, http.MethodPost, "/auth/login", body, nil, &result, false); err != nil {
		return nil, fmt.Errorf("failed to login as %s: %w", username, err)
	}
	if result.FindAdmin.Token == "" {
		return nil, fmt.Errorf("login as %s: %w", username, ErrUnauthorized)
	}

	c.tokenMutex.Lock()
	c.token = result.FindAdmin.Token
	c.tokenMutex.Unlock()

	log.Infof("✅ Logged in to backend as %s (%s)", username, result.FindAdmin.Role)
	return &result.FindAdmin, nil
}

func (c *backendClient) ListCategories(ctx context.Context) ([]domain.Category, error) {
	var categories []domain.Category
	if _, err := c.do(ctx, http.MethodGet, "/category", nil, nil, &categories, true); err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	log.Debugf("Fetched %d categories", len(categories))
	return categories, nil
}

func (c *backendClient) CreateCategory(ctx context.Context, in domain.CategoryInput) (*domain.Category, error) {
	var created domain.Category
	if _, err := c.do(ctx, http.MethodPost, "/category/create", in, nil, &created, true); err != nil {
		return nil, fmt.Errorf("failed to create category %q: %w", in.Title, err)
	}
	return &created, nil
}

func (c *backendClient) UpdateCategory(ctx context.Context, id string, in domain.CategoryInput) (*domain.Category, error) {
	var updated domain.Category
	if _, err := c.do(ctx, http.MethodPut, "/category/update/"+id, in, nil, &updated, true); err != nil {
		return nil, fmt.Errorf("failed to update category %s: %w", id, err)
	}
	return &updated, nil
}

func (c *backendClient) DeleteCategory(ctx context.Context, id string) error {
	if _, err := c.do(ctx, http.MethodDelete, "/category/"+id, nil, nil, nil, true); err != nil {
		return fmt.Errorf("failed to delete category %s: %w", id, err)
	}
	return nil
}

func (c *backendClient) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	var product domain.Product
	if _, err := c.do(ctx, http.MethodGet, "/product/"+id, nil, nil, &product, false); err != nil {
		return nil, fmt.Errorf("failed to get product %s: %w", id, err)
	}
	return &product, nil
}

func (c *backendClient) ListProducts(ctx context.Context, q domain.ProductQuery) (*domain.ProductPage, error) {
	if q.Take <= 0 {
		q.Take = 10
	}
	if q.Order == "" {
		q.Order = "desc"
	}
	if q.SortBy == "" {
		q.SortBy = "createdAt"
	}

	params := map[string]string{
		"skip":   strconv.Itoa(q.Skip),
		"take":   strconv.Itoa(q.Take),
		"order":  q.Order,
		"sortBy": q.SortBy,
	}
	for k, v := range map[string]string{
		"search":     q.Search,
		"code":       q.Code,
		"categoryId": q.CategoryID,
		"tagId":      q.TagID,
	} {
		if v != "" {
			params[k] = v
		}
	}

	var products []domain.Product
	total, err := c.do(ctx, http.MethodGet, "/product/sort", nil, params, &products, false)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return &domain.ProductPage{Products: products, Total: total}, nil
}

func (c *backendClient) CreateProduct(ctx context.Context, p domain.ProductPayload) (*domain.Product, error) {
	var created domain.Product
	if _, err := c.do(ctx, http.MethodPost, "/product/create", p, nil, &created, true); err != nil {
		return nil, fmt.Errorf("failed to create product %q: %w", p.Name, err)
	}
	return &created, nil
}

func (c *backendClient) UpdateProduct(ctx context.Context, id string, p domain.ProductPayload) (*domain.Product, error) {
	var updated domain.Product
	if _, err := c.do(ctx, http.MethodPut, "/product/update/"+id, p, nil, &updated, true); err != nil {
		return nil, fmt.Errorf("failed to update product %s: %w", id, err)
	}
	return &updated, nil
}

func (c *backendClient) DeleteProduct(ctx context.Context, id string) error {
	if _, err := c.do(ctx, http.MethodDelete, "/product/"+id, nil, nil, nil, true); err != nil {
		return fmt.Errorf("failed to delete product %s: %w", id, err)
	}
	return nil
}

func (c *backendClient) ListTags(ctx context.Context) ([]domain.Tag, error) {
	var tags []domain.Tag
	if _, err := c.do(ctx, http.MethodGet, "/tag", nil, nil, &tags, false); err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	return tags, nil
}

func (c *backendClient) CreateTag(ctx context.Context, in domain.TagInput) (*domain.Tag, error) {
	var created domain.Tag
	if _, err := c.do(ctx, http.MethodPost, "/tag", in, nil, &created, true); err != nil {
		return nil, fmt.Errorf("failed to create tag %q: %w", in.Title, err)
	}
	return &created, nil
}

func (c *backendClient) UpdateTag(ctx context.Context, id string, in domain.TagInput) (*domain.Tag, error) {
	var updated domain.Tag
	if _, err := c.do(ctx, http.MethodPut, "/tag/"+id, in, nil, &updated, true); err != nil {
		return nil, fmt.Errorf("failed to update tag %s: %w", id, err)
	}
	return &updated, nil
}

func (c *backendClient) DeleteTag(ctx context.Context, id string) error {
	if _, err := c.do(ctx, http.MethodDelete, "/tag/"+id, nil, nil, nil, true); err != nil {
		return fmt.Errorf("failed to delete tag %s: %w", id, err)
	}
	return nil
}

func (c *backendClient) AssignTag(ctx context.Context, productID, tagID string) error {
	body := domain.TagAssignment{ProductID: productID, TagID: tagID}
	if _, err := c.do(ctx, http.MethodPost, "/tag/assign", body, nil, nil, true); err != nil {
		return fmt.Errorf("failed to assign tag %s to product %s: %w", tagID, productID, err)
	}
	return nil
}

func (c *backendClient) UnassignTag(ctx context.Context, productID, tagID string) error {
	if _, err := c.do(ctx, http.MethodDelete, "/tag/remove/"+productID+"/"+tagID, nil, nil, nil, true); err != nil {
		return fmt.Errorf("failed to remove tag %s from product %s: %w", tagID, productID, err)
	}
	return nil
}

func (c *backendClient) ListDeliveries(ctx context.Context) ([]domain.Delivery, error) {
	var deliveries []domain.Delivery
	if _, err := c.do(ctx, http.MethodGet, "/delivery/delivery", nil, nil, &deliveries, false); err != nil {
		return nil, fmt.Errorf("failed to list deliveries: %w", err)
	}
	return deliveries, nil
}

func (c *backendClient) CreateDelivery(ctx context.Context, in domain.DeliveryInput) (*domain.Delivery, error) {
	var created domain.Delivery
	if _, err := c.do(ctx, http.MethodPost, "/delivery/delivery", in, nil, &created, true); err != nil {
		return nil, fmt.Errorf("failed to create %s delivery: %w", in.DeliveryType, err)
	}
	return &created, nil
}

func (c *backendClient) UpdateDelivery(ctx context.Context, id string, in domain.DeliveryInput) (*domain.Delivery, error) {
	var updated domain.Delivery
	if _, err := c.do(ctx, http.MethodPut, "/delivery/delivery/"+id, in, nil, &updated, true); err != nil {
		return nil, fmt.Errorf("failed to update delivery %s: %w", id, err)
	}
	return &updated, nil
}

func (c *backendClient) DeleteDelivery(ctx context.Context, id string) error {
	if _, err := c.do(ctx, http.MethodDelete, "/delivery/delivery/"+id, nil, nil, nil, true); err != nil {
		return fmt.Errorf("failed to delete delivery %s: %w", id, err)
	}
	return nil
}

// do sends one request and decodes the envelope's data into out. It returns
// the envelope's total, which only list endpoints fill in.
func (c *backendClient) do(
	ctx context.Context,
	method, path string,
	body any,
	query map[string]string,
	out any,
	auth bool,
) (int, error) {
	if c.isCircuitBreakerOpen() {
		remaining := c.getRemainingCircuitBreakerTime()
		log.Debugf("🚫 Request blocked by circuit breaker. Remaining time: %v", remaining.Round(time.Second))
		return 0, &CircuitOpenError{Remaining: remaining}
	}

	if auth {
		if err := c.ensureToken(ctx); err != nil {
			return 0, err
		}
	}

	c.rl.Take()

	req := c.httpClient.R().SetContext(ctx)
	if auth {
		c.tokenMutex.RLock()
		req.SetAuthToken(c.token)
		c.tokenMutex.RUnlock()
	}
	if body != nil {
		req.SetBody(body)
	}
	if len(query) > 0 {
		req.SetQueryParams(query)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		if ctx.Err() != nil {
			return 0, fmt.Errorf("request cancelled: %w", ctx.Err())
		}
		return 0, fmt.Errorf("failed to call %s %s: %w", method, path, err)
	}

	var envelope domain.Envelope[json.RawMessage]
	raw := resp.String()
	if raw != "" {
		if err := json.Unmarshal([]byte(raw), &envelope); err != nil && !resp.IsError() {
			return 0, fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
		}
	}

	if resp.IsError() {
		status := resp.StatusCode()
		switch status {
		case http.StatusTooManyRequests, http.StatusServiceUnavailable:
			log.Warnf("🚫 Backend throttled %s %s with %d", method, path, status)
			c.triggerCircuitBreaker()
		case http.StatusUnauthorized, http.StatusForbidden:
			return 0, fmt.Errorf("%w: %w", ErrUnauthorized, &StatusError{StatusCode: status, Message: envelope.Message})
		case http.StatusNotFound:
			return 0, fmt.Errorf("%w: %w", ErrNotFound, &StatusError{StatusCode: status, Message: envelope.Message})
		}
		return 0, &StatusError{StatusCode: status, Message: envelope.Message}
	}

	if out != nil && len(envelope.Data) > 0 && string(envelope.Data) != "null" {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return 0, fmt.Errorf("failed to decode %s %s data: %w", method, path, err)
		}
	}

	return envelope.Total, nil
}

func (c *backendClient) ensureToken(ctx context.Context) error {
	c.tokenMutex.RLock()
	token := c.token
	c.tokenMutex.RUnlock()
	if token != "" {
		return nil
	}
	if c.config.Username == "" {
		return fmt.Errorf("%w: no backend token or username configured", ErrUnauthorized)
	}
	_, err := c.Login(ctx, c.config.Username, c.config.Password)
	return err
}

func (c *backendClient) isCircuitBreakerOpen() bool {
	c.circuitBreakerMutex.RLock()
	now := time.Now()
	wasOpen := now.Before(c.blockedUntil)
	wasTriggered := !c.blockedUntil.IsZero()
	c.circuitBreakerMutex.RUnlock()

	if !wasOpen && wasTriggered {
		c.circuitBreakerMutex.Lock()
		// Double-check after acquiring write lock
		if !c.blockedUntil.IsZero() && now.After(c.blockedUntil) {
			c.blockedUntil = time.Time{}
			log.Infof("✅ Circuit breaker automatically re-enabled - requests are now allowed")
		}
		c.circuitBreakerMutex.Unlock()
	}

	return wasOpen
}

func (c *backendClient) triggerCircuitBreaker() {
	if c.circuitBreakerDelay <= 0 {
		return
	}

	c.circuitBreakerMutex.Lock()
	defer c.circuitBreakerMutex.Unlock()

	c.blockedUntil = time.Now().Add(c.circuitBreakerDelay)
	log.Warnf("🚫 Circuit breaker activated! Backend requests disabled until %v",
		c.blockedUntil.Format("15:04:05"))
}

func (c *backendClient) getRemainingCircuitBreakerTime() time.Duration {
	c.circuitBreakerMutex.RLock()
	defer c.circuitBreakerMutex.RUnlock()

	remaining := time.Until(c.blockedUntil)
	if remaining < 0 {
		return 0
	}
	return remaining
}
