package httpserver

import (
	"errors"
	"net/http"

	"storefront/internal/domain"

	"github.com/gin-gonic/gin"
)

// errorMapper turns a known error into a status and client message.
type errorMapper func(err error) (int, string, bool)

func sentinelMapper(target error, status int) errorMapper {
	return func(err error) (int, string, bool) {
		if errors.Is(err, target) {
			return status, err.Error(), true
		}
		return 0, "", false
	}
}

func stockMapper(err error) (int, string, bool) {
	var stockErr *domain.StockError
	if errors.As(err, &stockErr) {
		return http.StatusConflict, stockErr.Error(), true
	}
	return 0, "", false
}

var errorMappers = []errorMapper{
	stockMapper,
	sentinelMapper(domain.ErrInsufficientStock, http.StatusConflict),
	sentinelMapper(domain.ErrInvalidTransition, http.StatusConflict),
	sentinelMapper(domain.ErrInvalidInput, http.StatusBadRequest),
	sentinelMapper(domain.ErrTotalMismatch, http.StatusBadRequest),
	sentinelMapper(domain.ErrNotFound, http.StatusNotFound),
	sentinelMapper(domain.ErrGatewayUnsuccessful, http.StatusBadRequest),
	sentinelMapper(domain.ErrAmountMismatch, http.StatusBadRequest),
	sentinelMapper(domain.ErrCurrencyMismatch, http.StatusBadRequest),
	sentinelMapper(domain.ErrUnauthorized, http.StatusUnauthorized),
	sentinelMapper(domain.ErrForbidden, http.StatusForbidden),
}

// respondError writes the {success:false,message} envelope. Unmapped errors
// become 500 without leaking their text; gin's logger still records them.
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)
	for _, mapper := range errorMappers {
		if status, msg, ok := mapper(err); ok {
			c.JSON(status, gin.H{"success": false, "message": msg})
			return
		}
	}
	c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "internal server error"})
}

func badRequest(c *gin.Context, msg string) {
	respondError(c, domain.Invalid("%s", msg))
}
