package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response mirrors the backend envelope so the admin UI reads both the same way
type Response struct {
	Success    bool        `json:"success"`
	StatusCode int         `json:"statusCode"`
	Message    string      `json:"message"`
	Data       interface{} `json:"data,omitempty"`
	Total      *int        `json:"total,omitempty"`
	Errors     interface{} `json:"errors,omitempty"`
}

func Success(c *gin.Context, data interface{}) {
	SuccessWithMessage(c, "ok", data)
}

func SuccessWithMessage(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Success:    true,
		StatusCode: http.StatusOK,
		Message:    message,
		Data:       data,
	})
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Success:    true,
		StatusCode: http.StatusCreated,
		Message:    "created",
		Data:       data,
	})
}

func Accepted(c *gin.Context, data interface{}) {
	c.JSON(http.StatusAccepted, Response{
		Success:    true,
		StatusCode: http.StatusAccepted,
		Message:    "queued",
		Data:       data,
	})
}

func Page(c *gin.Context, data interface{}, total int) {
	c.JSON(http.StatusOK, Response{
		Success:    true,
		StatusCode: http.StatusOK,
		Message:    "ok",
		Data:       data,
		Total:      &total,
	})
}

func Error(c *gin.Context, code int, message string) {
	c.JSON(code, Response{
		StatusCode: code,
		Message:    message,
	})
}

func ValidationError(c *gin.Context, errors interface{}) {
	c.JSON(http.StatusUnprocessableEntity, Response{
		StatusCode: http.StatusUnprocessableEntity,
		Message:    "validation failed",
		Errors:     errors,
	})
}
