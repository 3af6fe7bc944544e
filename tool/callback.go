package tool

import (
	"errors"
	"maps"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rutno/clouddrive-go/types"
)

func FastReturnError(msg string) gin.H {
	return gin.H{
		"success": false,
		"error":   msg,
	}
}

func FastReturnSuccess() gin.H {
	return gin.H{
		"success": true,
	}
}

func FastReturnSuccessWithData(data map[string]any) gin.H {
	resp := gin.H{
		"success": true,
	}
	maps.Copy(resp, data)
	return resp
}

// StatusForError maps the service error taxonomy to an HTTP status code.
func StatusForError(err error) int {
	switch {
	case errors.Is(err, types.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, types.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, types.ErrIncomplete):
		return http.StatusConflict
	case errors.Is(err, types.ErrForbidden), errors.Is(err, types.ErrInvalidPath):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
