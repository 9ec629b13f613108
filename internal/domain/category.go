package domain

import "encoding/json"

// RichText is the backend's wrapper around editor HTML
type RichText struct {
	Text string `json:"text"`
}

// Category is a single record of the flat category listing
type Category struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Slug     string  `json:"slug,omitempty"`
	FatherID *string `json:"fatherId"`

	// SEO fields are carried through untouched
	Description     *RichText       `json:"description,omitempty"`
	MetaTitle       string          `json:"metaTitle,omitempty"`
	MetaDescription string          `json:"metaDescription,omitempty"`
	MetaKeywords    string          `json:"metaKeywords,omitempty"`
	OgTitle         string          `json:"ogTitle,omitempty"`
	OgDescription   string          `json:"ogDescription,omitempty"`
	CanonicalURL    string          `json:"canonicalUrl,omitempty"`
	AltText         string          `json:"altText,omitempty"`
	StructuredData  json.RawMessage `json:"structuredData,omitempty"`
	CreatedAt       string          `json:"createdAt,omitempty"`
	UpdatedAt       string          `json:"updatedAt,omitempty"`
}

// Father returns the parent id or "" for roots
func (c Category) Father() string {
	if c.FatherID == nil {
		return ""
	}
	return *c.FatherID
}

// CategoryInput is the create/update body sent to the backend
type CategoryInput struct {
	Title           string          `json:"title" validate:"required,max=200"`
	Description     *RichText       `json:"description"`
	FatherID        *string         `json:"fatherId"`
	MetaTitle       string          `json:"metaTitle"`
	MetaDescription string          `json:"metaDescription"`
	OgTitle         string          `json:"ogTitle"`
	OgDescription   string          `json:"ogDescription"`
	CanonicalURL    string          `json:"canonicalUrl"`
	AltText         string          `json:"altText"`
	StructuredData  json.RawMessage `json:"structuredData"`
}
