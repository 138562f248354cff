package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/BryServices/auradhom-v2/internal/domain/order"
)

type ErrorDetail struct {
	Path string `json:"path"`
	Info string `json:"info"`
}

type errorResponse struct {
	Error   string        `json:"error"`
	Details []ErrorDetail `json:"details,omitempty"`
	Order   *order.Order  `json:"order,omitempty"`
}

func respondError(c *gin.Context, code int, msg string) {
	c.JSON(code, errorResponse{Error: msg})
}

// respondBindError reports validator failures field by field.
func respondBindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		details := make([]ErrorDetail, 0, len(verrs))
		for _, fe := range verrs {
			details = append(details, ErrorDetail{Path: fe.Namespace(), Info: validationMessage(fe)})
		}
		c.JSON(http.StatusBadRequest, errorResponse{Error: "validation failed", Details: details})
		return
	}
	respondError(c, http.StatusBadRequest, err.Error())
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "min":
		return fe.Field() + " must be at least " + fe.Param()
	case "gt":
		return fe.Field() + " must be greater than " + fe.Param()
	case "oneof":
		return fe.Field() + " must be one of " + fe.Param()
	default:
		return fe.Field() + " is invalid"
	}
}

// respondDomainError maps lifecycle errors to HTTP status codes.
func respondDomainError(c *gin.Context, err error) {
	var (
		verr *order.ValidationError
		dup  *order.DuplicateOrderError
		terr *order.InvalidTransitionError
		perr *order.PersistenceError
	)
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, errorResponse{
			Error:   "validation failed",
			Details: []ErrorDetail{{Path: verr.Field, Info: verr.Err.Error()}},
		})
	case errors.As(err, &dup):
		c.JSON(http.StatusConflict, errorResponse{Error: dup.Error(), Order: dup.Existing})
	case errors.As(err, &terr):
		if terr.From == "" {
			respondError(c, http.StatusNotFound, terr.Error())
			return
		}
		respondError(c, http.StatusConflict, terr.Error())
	case errors.As(err, &perr):
		respondError(c, http.StatusServiceUnavailable, perr.Error())
	default:
		respondError(c, http.StatusInternalServerError, err.Error())
	}
}
