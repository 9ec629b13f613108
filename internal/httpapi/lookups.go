package httpapi

import (
	"shopadmin/catalog/internal/domain"

	"github.com/gin-gonic/gin"
)

type TagHandler struct {
	catalog CatalogService
}

func NewTagHandler(catalog CatalogService) *TagHandler {
	return &TagHandler{catalog: catalog}
}

func (h *TagHandler) List(c *gin.Context) {
	tags, err := h.catalog.Tags(c.Request.Context())
	if err != nil {
		abort(c, err)
		return
	}
	if tags == nil {
		tags = []domain.Tag{}
	}
	Success(c, tags)
}

func (h *TagHandler) Create(c *gin.Context) {
	var req domain.TagInput
	if !bindJSON(c, &req) {
		return
	}

	tag, err := h.catalog.CreateTag(c.Request.Context(), req)
	if err != nil {
		abort(c, err)
		return
	}
	Created(c, tag)
}

func (h *TagHandler) Update(c *gin.Context) {
	var req domain.TagInput
	if !bindJSON(c, &req) {
		return
	}

	tag, err := h.catalog.UpdateTag(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		abort(c, err)
		return
	}
	SuccessWithMessage(c, "updated", tag)
}

func (h *TagHandler) Delete(c *gin.Context) {
	if err := h.catalog.DeleteTag(c.Request.Context(), c.Param("id")); err != nil {
		abort(c, err)
		return
	}
	SuccessWithMessage(c, "deleted", gin.H{"id": c.Param("id")})
}

type DeliveryHandler struct {
	catalog CatalogService
}

func NewDeliveryHandler(catalog CatalogService) *DeliveryHandler {
	return &DeliveryHandler{catalog: catalog}
}

func (h *DeliveryHandler) List(c *gin.Context) {
	deliveries, err := h.catalog.Deliveries(c.Request.Context())
	if err != nil {
		abort(c, err)
		return
	}
	if deliveries == nil {
		deliveries = []domain.Delivery{}
	}
	Success(c, deliveries)
}

func (h *DeliveryHandler) Create(c *gin.Context) {
	var req domain.DeliveryInput
	if !bindJSON(c, &req) {
		return
	}

	delivery, err := h.catalog.CreateDelivery(c.Request.Context(), req)
	if err != nil {
		abort(c, err)
		return
	}
	Created(c, delivery)
}

func (h *DeliveryHandler) Update(c *gin.Context) {
	var req domain.DeliveryInput
	if !bindJSON(c, &req) {
		return
	}

	delivery, err := h.catalog.UpdateDelivery(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		abort(c, err)
		return
	}
	SuccessWithMessage(c, "updated", delivery)
}

func (h *DeliveryHandler) Delete(c *gin.Context) {
	if err := h.catalog.DeleteDelivery(c.Request.Context(), c.Param("id")); err != nil {
		abort(c, err)
		return
	}
	SuccessWithMessage(c, "deleted", gin.H{"id": c.Param("id")})
}
