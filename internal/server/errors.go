package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	invoicedomain "github.com/rentfold/rentfold/internal/invoice/domain"
	leasedomain "github.com/rentfold/rentfold/internal/lease/domain"
	paymentdomain "github.com/rentfold/rentfold/internal/payment/domain"
	propertydomain "github.com/rentfold/rentfold/internal/property/domain"
	subscriptiondomain "github.com/rentfold/rentfold/internal/subscription/domain"
	"gorm.io/gorm"
)

type errorPayload struct {
	Type    string `json:"type"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrInvalidRequest = errors.New("invalid_request")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

var validationErrors = []error{
	leasedomain.ErrInvalidLandlord,
	leasedomain.ErrInvalidLease,
	leasedomain.ErrInvalidUnit,
	leasedomain.ErrInvalidTenant,
	leasedomain.ErrInvalidLeaseType,
	leasedomain.ErrInvalidRentAmount,
	leasedomain.ErrInvalidCurrency,
	leasedomain.ErrInvalidStartAt,
	leasedomain.ErrMissingEndDate,
	leasedomain.ErrInvalidEndDate,
	leasedomain.ErrInvalidInvoiceDay,
	invoicedomain.ErrInvalidLandlord,
	invoicedomain.ErrInvalidInvoice,
	invoicedomain.ErrInvalidLease,
	invoicedomain.ErrInvalidCategory,
	invoicedomain.ErrInvalidAmount,
	invoicedomain.ErrInvalidCurrency,
	invoicedomain.ErrInvalidDueDate,
	propertydomain.ErrInvalidLandlord,
	propertydomain.ErrInvalidProperty,
	propertydomain.ErrInvalidUnit,
	propertydomain.ErrInvalidTenant,
	propertydomain.ErrInvalidName,
	propertydomain.ErrInvalidLabel,
	subscriptiondomain.ErrInvalidLandlord,
	paymentdomain.ErrInvalidProvider,
	paymentdomain.ErrInvalidPayload,
	paymentdomain.ErrInvalidEvent,
	ErrInvalidRequest,
}

var notFoundErrors = []error{
	leasedomain.ErrLeaseNotFound,
	leasedomain.ErrUnitNotFound,
	invoicedomain.ErrInvoiceNotFound,
	propertydomain.ErrPropertyNotFound,
	propertydomain.ErrUnitNotFound,
	propertydomain.ErrTenantNotFound,
	subscriptiondomain.ErrLandlordNotFound,
	paymentdomain.ErrProviderNotFound,
}

var conflictErrors = []error{
	leasedomain.ErrUnitOccupied,
	leasedomain.ErrLeaseTerminated,
	invoicedomain.ErrInvoiceAlreadyPaid,
	propertydomain.ErrDuplicateProperty,
	subscriptiondomain.ErrTrialAlreadyStarted,
	gorm.ErrDuplicatedKey,
}

func matchesAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func mapError(err error) (int, errorPayload) {
	switch {
	case err == nil:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	case errors.Is(err, ErrUnauthorized), errors.Is(err, paymentdomain.ErrInvalidSignature):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden",
			Message: "forbidden",
		}
	case matchesAny(err, validationErrors):
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Code:    err.Error(),
			Message: "validation error",
		}
	case matchesAny(err, notFoundErrors):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Code:    err.Error(),
			Message: "not found",
		}
	case matchesAny(err, conflictErrors):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Code:    err.Error(),
			Message: "conflict",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}
