package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/aleisley/ta-backend/internal/config"
	"github.com/aleisley/ta-backend/internal/model"
	apperrors "github.com/aleisley/ta-backend/pkg/errors"
	"github.com/aleisley/ta-backend/pkg/httputil"
)

// BaseHandler carries what every resource handler needs to read a request.
type BaseHandler struct {
	Pagination config.PaginationConfig
}

func (h *BaseHandler) Page(c *gin.Context) (model.Page, error) {
	return httputil.ParsePagination(c, h.Pagination.DefaultLimit, h.Pagination.MaxLimit)
}

// ParseID reads a UUID path parameter.
func ParseID(c *gin.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, apperrors.Validation([]apperrors.FieldError{{
			Field:   name,
			Message: "must be a valid UUID",
		}}, err)
	}
	return id, nil
}

// Bind decodes and validates a JSON body.
func Bind(c *gin.Context, dst interface{}) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		return httputil.BindError(err)
	}
	return nil
}
