package handler

import (
	"errors"
	"fmt"
	"net/http"

	"mazi-recorder/internal/network"
	"mazi-recorder/internal/transport/httpdto"
	recorder_errors "mazi-recorder/pkg/errors"

	"github.com/gin-gonic/gin"
)

var (
	errInterviewNotFound  = fmt.Errorf("interview %w", recorder_errors.ErrNotFound)
	errAttachmentNotFound = fmt.Errorf("attachment %w", recorder_errors.ErrNotFound)
	errQuestionNotFound   = fmt.Errorf("question %w", recorder_errors.ErrNotFound)
)

func invalidInput(reason string) error {
	return fmt.Errorf("%w: %s", recorder_errors.ErrInvalidInput, reason)
}

// respondError writes the error envelope for err. Errors it does not know
// are left to the error middleware.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, recorder_errors.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse(err.Error(), "INVALID_REQUEST"))
	case errors.Is(err, recorder_errors.ErrNotFound):
		c.JSON(http.StatusNotFound, httpdto.NewErrorResponse(err.Error(), "NOT_FOUND"))
	case errors.Is(err, recorder_errors.ErrConflict):
		c.JSON(http.StatusConflict, httpdto.NewErrorResponse(err.Error(), "CONFLICT"))
	case errors.Is(err, recorder_errors.ErrNetworking):
		c.JSON(http.StatusBadGateway, httpdto.NewErrorResponse(
			"could not reach the server, check the connection and try again",
			networkCode(err),
		))
	default:
		_ = c.Error(err)
		c.Status(http.StatusInternalServerError)
	}
}

func networkCode(err error) string {
	switch network.ErrorCode(err) {
	case network.CodeTimeout:
		return "NETWORK_TIMEOUT"
	case network.CodeBadStatus:
		return "NETWORK_BAD_STATUS"
	case network.CodeMissingID:
		return "NETWORK_MISSING_ID"
	case network.CodeEncoding:
		return "NETWORK_ENCODING"
	case network.CodeDecode:
		return "NETWORK_DECODE"
	default:
		return "NETWORK_ERROR"
	}
}
