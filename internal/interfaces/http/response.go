package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/invoice-ledger/internal/application/port"
	"github.com/garyjia/invoice-ledger/internal/invoice"
)

// Response represents a standard JSON response
type Response struct {
	Success bool                   `json:"success"`
	Data    interface{}            `json:"data,omitempty"`
	Count   *int                   `json:"count,omitempty"`
	Error   string                 `json:"error,omitempty"`
	Code    string                 `json:"code,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}

const codeConflict = "CONFLICT"

func ok(c *gin.Context, status int, data interface{}) {
	c.JSON(status, Response{Success: true, Data: data})
}

func okList(c *gin.Context, data interface{}, count int) {
	c.JSON(http.StatusOK, Response{Success: true, Data: data, Count: &count})
}

func badRequest(c *gin.Context, field string, value interface{}, reason string) {
	c.JSON(http.StatusBadRequest, Response{
		Success: false,
		Error:   field + " " + reason,
		Code:    invoice.CodeValidation,
		Details: map[string]interface{}{"field": field, "value": value},
	})
}

// respondError maps service errors to status codes and error codes.
// Unknown errors are logged and hidden behind a generic message.
func (h *Handlers) respondError(c *gin.Context, err error) {
	resp := Response{Success: false, Error: err.Error(), Code: invoice.ErrorCode(err)}
	status := http.StatusInternalServerError

	var verr *invoice.ValidationError
	var perr *invoice.PaymentError

	switch {
	case errors.As(err, &verr):
		status = http.StatusBadRequest
		resp.Error = verr.Field + " " + verr.Reason
		resp.Details = map[string]interface{}{"field": verr.Field, "value": verr.Value}
	case errors.As(err, &perr):
		status = http.StatusBadRequest
		resp.Error = perr.Err.Error()
		resp.Details = map[string]interface{}{
			"invoiceId":  perr.InvoiceID,
			"amount":     perr.Amount,
			"balanceDue": perr.BalanceDue,
		}
	case errors.Is(err, invoice.ErrInvalidAmount):
		status = http.StatusBadRequest
	case errors.Is(err, invoice.ErrNotFound):
		status = http.StatusNotFound
		resp.Error = invoice.ErrNotFound.Error()
	case errors.Is(err, invoice.ErrDuplicateInvoiceNumber):
		status = http.StatusConflict
	case errors.Is(err, port.ErrConflict):
		status = http.StatusConflict
		resp.Code = codeConflict
		resp.Error = "invoice was modified concurrently, retry the request"
	default:
		h.logger.Error("Request failed",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"request_id", c.GetString(requestIDKey),
			"error", err,
		)
		resp.Error = "internal server error"
		resp.Code = ""
	}

	c.JSON(status, resp)
}
