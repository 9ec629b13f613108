package domain

type Tag struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	MetaTitle       string `json:"metaTitle,omitempty"`
	MetaDescription string `json:"metaDescription,omitempty"`
	MetaKeywords    string `json:"metaKeywords,omitempty"`
	OgTitle         string `json:"ogTitle,omitempty"`
	OgDescription   string `json:"ogDescription,omitempty"`
	CanonicalURL    string `json:"canonicalUrl,omitempty"`
	AltText         string `json:"altText,omitempty"`
}

// TagInput is the tag create/update body
type TagInput struct {
	Title           string `json:"title" validate:"required,max=200"`
	MetaTitle       string `json:"metaTitle"`
	MetaDescription string `json:"metaDescription"`
	MetaKeywords    string `json:"metaKeywords"`
	OgTitle         string `json:"ogTitle"`
	OgDescription   string `json:"ogDescription"`
	CanonicalURL    string `json:"canonicalUrl"`
	AltText         string `json:"altText"`
}

// TagAssignment attaches a tag to a product
type TagAssignment struct {
	ProductID string `json:"productId"`
	TagID     string `json:"tagId"`
}

const (
	DeliveryFree          = "FREE"
	DeliveryPaymentOnSite = "PAYMENT_ON_SITE"
	DeliveryFixedRate     = "FIXED_RATE"
	DeliveryPostServices  = "POST_SERVICES"
)

type Delivery struct {
	ID           string `json:"id"`
	DeliveryType string `json:"deliveryType"`
	Rate         string `json:"rate"`
}

// DeliveryInput is the delivery create/update body. The backend keeps the
// rate as free text.
type DeliveryInput struct {
	DeliveryType string `json:"deliveryType" validate:"required,oneof=FREE PAYMENT_ON_SITE FIXED_RATE POST_SERVICES"`
	Rate         string `json:"rate" validate:"max=100"`
}

// Envelope is the backend's standard response wrapper
type Envelope[T any] struct {
	Success    bool   `json:"success"`
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Data       T      `json:"data"`
	Total      int    `json:"total,omitempty"`
	Timestamp  string `json:"timestamp,omitempty"`
}

type Admin struct {
	ID    string `json:"id"`
	Token string `json:"token"`
	Role  string `json:"role"`
}

type LoginResult struct {
	FindAdmin Admin `json:"findAdmin"`
}
