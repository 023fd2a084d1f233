package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/clinicflow/backend/pkg/apperror"
	"github.com/clinicflow/backend/pkg/pagination"
)

// Body is the success envelope.
type Body struct {
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data"`
}

// ListBody is the success envelope for paginated lists.
type ListBody struct {
	Data       interface{}     `json:"data"`
	Pagination pagination.Meta `json:"pagination"`
}

// ErrorBody is the error envelope.
type ErrorBody struct {
	Status  string                `json:"status"`
	Message string                `json:"message"`
	Details []apperror.FieldError `json:"details,omitempty"`
}

// OK sends a 200 JSON response with data.
func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Body{Data: data})
}

// OKMessage sends a 200 JSON response with a message and data.
func OKMessage(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, Body{Message: message, Data: data})
}

// Created sends a 201 JSON response.
func Created(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusCreated, Body{Message: message, Data: data})
}

// Message sends a 200 JSON response carrying only a message.
func Message(c *gin.Context, message string) {
	c.JSON(http.StatusOK, Body{Message: message})
}

// List sends a 200 paginated list.
func List(c *gin.Context, data interface{}, meta pagination.Meta) {
	c.JSON(http.StatusOK, ListBody{Data: data, Pagination: meta})
}

// Fail records err on the context and stops the chain; ErrorHandler renders it.
func Fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// Render writes the error envelope for err. Errors that are not an
// *apperror.Error are rendered as a generic 500.
func Render(c *gin.Context, err error) {
	e, ok := apperror.As(err)
	if !ok {
		e = apperror.Internal("internal server error", err)
	}
	c.JSON(e.Status, ErrorBody{Status: "error", Message: e.Message, Details: e.Details})
}
