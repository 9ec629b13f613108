package domain

type Media struct {
	ID   string `json:"id"`
	URL  string `json:"url"`
	Type string `json:"type"`
}

type MediaItem struct {
	ID          string `json:"id"`
	Alt         string `json:"alt,omitempty"`
	Description string `json:"description"`
	Media       Media  `json:"media"`
}

type CategoryOnProduct struct {
	ProductID  string   `json:"productId"`
	CategoryID string   `json:"categoryId"`
	Category   Category `json:"category"`
}

type TagOnProduct struct {
	ProductID string `json:"productId"`
	TagID     string `json:"tagId"`
	Tag       Tag    `json:"tag"`
}

// Product is the backend's product as returned by GET /product/{id}
type Product struct {
	ID                  string              `json:"id"`
	Code                int                 `json:"code"`
	Name                string              `json:"name"`
	Slug                string              `json:"slug"`
	MetaTitle           string              `json:"metaTitle,omitempty"`
	MetaDescription     string              `json:"metaDescription,omitempty"`
	MetaKeywords        string              `json:"metaKeywords,omitempty"`
	OgTitle             string              `json:"ogTitle,omitempty"`
	OgDescription       string              `json:"ogDescription,omitempty"`
	CanonicalURL        string              `json:"canonicalUrl,omitempty"`
	AltText             string              `json:"altText,omitempty"`
	DeliveryID          *string             `json:"deliveryId,omitempty"`
	IsAvailable         bool                `json:"isAvailable"`
	Count               int                 `json:"count"`
	Price               int64               `json:"price"`
	Off                 int                 `json:"off"`
	Description         RichText            `json:"description"`
	CreatedAt           string              `json:"createdAt"`
	UpdatedAt           string              `json:"updatedAt"`
	MediaItems          []MediaItem         `json:"media_item"`
	CategoriesOnProduct []CategoryOnProduct `json:"CategoriesOnProduct"`
	TagOnProduct        []TagOnProduct      `json:"tagOnProduct"`
}

// CategoryIDs returns the ids of the categories the product is assigned to
func (p *Product) CategoryIDs() []string {
	ids := make([]string, 0, len(p.CategoriesOnProduct))
	for _, c := range p.CategoriesOnProduct {
		ids = append(ids, c.CategoryID)
	}
	return ids
}

// TagIDs returns the ids of the tags attached to the product
func (p *Product) TagIDs() []string {
	ids := make([]string, 0, len(p.TagOnProduct))
	for _, t := range p.TagOnProduct {
		ids = append(ids, t.TagID)
	}
	return ids
}

// ProductFields are the editable scalar fields of the product form
type ProductFields struct {
	Name            string   `json:"name" validate:"required,max=300"`
	Slug            string   `json:"slug" validate:"required"`
	IsAvailable     bool     `json:"isAvailable"`
	Count           int      `json:"count" validate:"gte=0"`
	Price           int64    `json:"price" validate:"gte=0"`
	Off             *int     `json:"off,omitempty" validate:"omitempty,gte=0,lte=100"`
	Description     RichText `json:"description"`
	TagIDs          []string `json:"tagId"`
	DeliveryID      string   `json:"deliveryId"`
	MetaTitle       string   `json:"metaTitle"`
	MetaDescription string   `json:"metaDescription"`
	MetaKeywords    string   `json:"metaKeywords"`
	OgTitle         string   `json:"ogTitle"`
	OgDescription   string   `json:"ogDescription"`
	CanonicalURL    string   `json:"canonicalUrl"`
	AltText         string   `json:"altText"`
}

// ProductPayload is the create/update body; CategoryIDs holds leaf ids only
type ProductPayload struct {
	ProductFields
	CategoryIDs []string `json:"categoryId"`
}

// ProductQuery mirrors the backend's /product/sort parameters
type ProductQuery struct {
	Skip       int    `form:"skip"`
	Take       int    `form:"take"`
	Order      string `form:"order"`
	SortBy     string `form:"sortBy"`
	Search     string `form:"search"`
	Code       string `form:"code"`
	CategoryID string `form:"categoryId"`
	TagID      string `form:"tagId"`
}

type ProductPage struct {
	Products []Product `json:"data"`
	Total    int       `json:"total"`
}
