package response

import (
	"log/slog"

	"easybus/internal/shared/apperrors"
	"easybus/pkg/logger"

	"github.com/gin-gonic/gin"
)

func RespondJSON(c *gin.Context, status string, code int, message string, data interface{}, errors interface{}) {
	c.JSON(code, StandardApiResponse{
		Status:     status,
		StatusCode: code,
		Message:    message,
		Data:       data,
		Errors:     errors,
	})
}

// RespondError writes err using the status code of its kind. Internal errors
// are logged and their message replaced by fallback.
func RespondError(c *gin.Context, err error, fallback string) {
	appErr, ok := apperrors.As(err)
	if !ok || appErr.Kind == apperrors.KindInternal {
		logger.GetDefault().ErrorContext(c.Request.Context(), fallback,
			slog.String("path", c.Request.URL.Path),
			slog.Any("error", err),
		)
		RespondJSON(c, "error", apperrors.StatusFor(apperrors.KindInternal), fallback, nil, nil)
		return
	}

	var details interface{}
	switch {
	case len(appErr.Details) > 0:
		details = appErr.Details
	case len(appErr.Labels) > 0:
		details = ErrorDetails{Kind: string(appErr.Kind), Seats: appErr.Labels}
	default:
		details = ErrorDetails{Kind: string(appErr.Kind)}
	}

	RespondJSON(c, "error", appErr.HTTPStatus(), appErr.Message, nil, details)
}
