package httpapi

import (
	"context"
	"net/http"
	"strconv"

	"shopadmin/catalog/internal/categorytree"
	"shopadmin/catalog/internal/domain"
	"shopadmin/catalog/internal/repository"
	"shopadmin/catalog/internal/service"

	"github.com/gin-gonic/gin"
)

// CatalogService is the part of service.Catalog the handlers use
type CatalogService interface {
	Forest(ctx context.Context) (*categorytree.Forest, error)
	Path(ctx context.Context, id string) (*service.CategoryPath, error)
	CreateCategory(ctx context.Context, in domain.CategoryInput) (*domain.Category, error)
	UpdateCategory(ctx context.Context, id string, in domain.CategoryInput) (*domain.Category, error)
	DeleteCategory(ctx context.Context, id string) ([]string, error)
	Products(ctx context.Context, q domain.ProductQuery) ([]service.ProductRow, int, error)
	Filters(ctx context.Context) (*service.Filters, error)
	DeleteProduct(ctx context.Context, id string) error

	Tags(ctx context.Context) ([]domain.Tag, error)
	CreateTag(ctx context.Context, in domain.TagInput) (*domain.Tag, error)
	UpdateTag(ctx context.Context, id string, in domain.TagInput) (*domain.Tag, error)
	DeleteTag(ctx context.Context, id string) error
	AssignTag(ctx context.Context, productID, tagID string) error
	UnassignTag(ctx context.Context, productID, tagID string) error

	Deliveries(ctx context.Context) ([]domain.Delivery, error)
	CreateDelivery(ctx context.Context, in domain.DeliveryInput) (*domain.Delivery, error)
	UpdateDelivery(ctx context.Context, id string, in domain.DeliveryInput) (*domain.Delivery, error)
	DeleteDelivery(ctx context.Context, id string) error
}

// EditorService is the part of service.Editor the handlers use
type EditorService interface {
	Open(ctx context.Context, productID string) (*service.DraftView, error)
	View(ctx context.Context, draftID string) (*service.DraftView, error)
	Choose(ctx context.Context, draftID string, level int, categoryID string) (*service.DraftView, error)
	Clear(ctx context.Context, draftID string, level int) (*service.DraftView, error)
	Commit(ctx context.Context, draftID string) (*service.DraftView, error)
	Remove(ctx context.Context, draftID, leafID string) (*service.DraftView, error)
	Discard(ctx context.Context, draftID string) error
	Submit(ctx context.Context, draftID string, fields domain.ProductFields) (*service.Receipt, error)
	Submission(ctx context.Context, id string) (*repository.Submission, error)
}

type CategoryHandler struct {
	catalog CatalogService
}

func NewCategoryHandler(catalog CatalogService) *CategoryHandler {
	return &CategoryHandler{catalog: catalog}
}

type treeResponse struct {
	Roots       []*categorytree.Node `json:"roots"`
	Orphans     []string             `json:"orphans"`
	Unreachable []string             `json:"unreachable"`
}

func (h *CategoryHandler) Tree(c *gin.Context) {
	forest, err := h.catalog.Forest(c.Request.Context())
	if err != nil {
		abort(c, err)
		return
	}

	Success(c, treeResponse{
		Roots:       forest.Roots,
		Orphans:     nonNil(forest.Orphans()),
		Unreachable: nonNil(forest.Unreachable()),
	})
}

func (h *CategoryHandler) Options(c *gin.Context) {
	forest, err := h.catalog.Forest(c.Request.Context())
	if err != nil {
		abort(c, err)
		return
	}
	Success(c, forest.Options())
}

func (h *CategoryHandler) Path(c *gin.Context) {
	path, err := h.catalog.Path(c.Request.Context(), c.Param("id"))
	if err != nil {
		abort(c, err)
		return
	}
	Success(c, path)
}

func (h *CategoryHandler) Create(c *gin.Context) {
	var req domain.CategoryInput
	if !bindJSON(c, &req) {
		return
	}

	category, err := h.catalog.CreateCategory(c.Request.Context(), req)
	if err != nil {
		abort(c, err)
		return
	}
	Created(c, category)
}

func (h *CategoryHandler) Update(c *gin.Context) {
	var req domain.CategoryInput
	if !bindJSON(c, &req) {
		return
	}

	category, err := h.catalog.UpdateCategory(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		abort(c, err)
		return
	}
	SuccessWithMessage(c, "updated", category)
}

func (h *CategoryHandler) Delete(c *gin.Context) {
	removed, err := h.catalog.DeleteCategory(c.Request.Context(), c.Param("id"))
	if err != nil {
		abort(c, err)
		return
	}
	SuccessWithMessage(c, "deleted", gin.H{"id": c.Param("id"), "descendants": nonNil(removed)})
}

type ProductHandler struct {
	catalog CatalogService
}

func NewProductHandler(catalog CatalogService) *ProductHandler {
	return &ProductHandler{catalog: catalog}
}

func (h *ProductHandler) List(c *gin.Context) {
	var q domain.ProductQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		Error(c, http.StatusBadRequest, "invalid query parameters")
		return
	}
	if q.Take <= 0 {
		q.Take = 10
	}

	rows, total, err := h.catalog.Products(c.Request.Context(), q)
	if err != nil {
		abort(c, err)
		return
	}
	Page(c, rows, total)
}

func (h *ProductHandler) Filters(c *gin.Context) {
	filters, err := h.catalog.Filters(c.Request.Context())
	if err != nil {
		abort(c, err)
		return
	}
	Success(c, filters)
}

func (h *ProductHandler) Delete(c *gin.Context) {
	if err := h.catalog.DeleteProduct(c.Request.Context(), c.Param("id")); err != nil {
		abort(c, err)
		return
	}
	SuccessWithMessage(c, "deleted", gin.H{"id": c.Param("id")})
}

func (h *ProductHandler) AssignTag(c *gin.Context) {
	if err := h.catalog.AssignTag(c.Request.Context(), c.Param("id"), c.Param("tagId")); err != nil {
		abort(c, err)
		return
	}
	Created(c, domain.TagAssignment{ProductID: c.Param("id"), TagID: c.Param("tagId")})
}

func (h *ProductHandler) UnassignTag(c *gin.Context) {
	if err := h.catalog.UnassignTag(c.Request.Context(), c.Param("id"), c.Param("tagId")); err != nil {
		abort(c, err)
		return
	}
	SuccessWithMessage(c, "removed", domain.TagAssignment{ProductID: c.Param("id"), TagID: c.Param("tagId")})
}

type DraftHandler struct {
	editor EditorService
}

func NewDraftHandler(editor EditorService) *DraftHandler {
	return &DraftHandler{editor: editor}
}

type openDraftRequest struct {
	ProductID string `json:"productId"`
}

type chooseRequest struct {
	CategoryID string `json:"categoryId" validate:"required"`
}

func (h *DraftHandler) Open(c *gin.Context) {
	var req openDraftRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}

	view, err := h.editor.Open(c.Request.Context(), req.ProductID)
	if err != nil {
		abort(c, err)
		return
	}
	Created(c, view)
}

func (h *DraftHandler) View(c *gin.Context) {
	view, err := h.editor.View(c.Request.Context(), c.Param("id"))
	if err != nil {
		abort(c, err)
		return
	}
	Success(c, view)
}

func (h *DraftHandler) Choose(c *gin.Context) {
	level, ok := levelParam(c)
	if !ok {
		return
	}
	var req chooseRequest
	if !bindJSON(c, &req) {
		return
	}

	view, err := h.editor.Choose(c.Request.Context(), c.Param("id"), level, req.CategoryID)
	if err != nil {
		abort(c, err)
		return
	}
	Success(c, view)
}

func (h *DraftHandler) Clear(c *gin.Context) {
	level, ok := levelParam(c)
	if !ok {
		return
	}

	view, err := h.editor.Clear(c.Request.Context(), c.Param("id"), level)
	if err != nil {
		abort(c, err)
		return
	}
	Success(c, view)
}

func (h *DraftHandler) Commit(c *gin.Context) {
	view, err := h.editor.Commit(c.Request.Context(), c.Param("id"))
	if err != nil {
		abort(c, err)
		return
	}
	Success(c, view)
}

func (h *DraftHandler) Remove(c *gin.Context) {
	view, err := h.editor.Remove(c.Request.Context(), c.Param("id"), c.Param("leaf"))
	if err != nil {
		abort(c, err)
		return
	}
	Success(c, view)
}

func (h *DraftHandler) Discard(c *gin.Context) {
	if err := h.editor.Discard(c.Request.Context(), c.Param("id")); err != nil {
		abort(c, err)
		return
	}
	SuccessWithMessage(c, "discarded", nil)
}

func (h *DraftHandler) Submit(c *gin.Context) {
	var req domain.ProductFields
	if !bindJSON(c, &req) {
		return
	}

	receipt, err := h.editor.Submit(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		abort(c, err)
		return
	}
	Accepted(c, receipt)
}

func (h *DraftHandler) Submission(c *gin.Context) {
	sub, err := h.editor.Submission(c.Request.Context(), c.Param("id"))
	if err != nil {
		abort(c, err)
		return
	}
	Success(c, sub)
}

func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		Error(c, http.StatusBadRequest, "invalid request body")
		return false
	}
	if err := validate.Struct(req); err != nil {
		ValidationError(c, validationErrors(err))
		return false
	}
	return true
}

func levelParam(c *gin.Context) (int, bool) {
	level, err := strconv.Atoi(c.Param("level"))
	if err != nil {
		Error(c, http.StatusBadRequest, "level must be an integer")
		return 0, false
	}
	return level, true
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
