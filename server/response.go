package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/kbukum/minutes/errors"
	"github.com/kbukum/minutes/server/middleware"
)

// DataResponse wraps every successful body.
type DataResponse struct {
	Data any `json:"data"`
}

// RespondWithError answers with err's status and body. An error that is not
// an AppError is reported as a bare 500; the request logger still sees it.
func RespondWithError(c *gin.Context, err error) {
	_ = c.Error(err)
	appErr, ok := apperrors.AsAppError(err)
	if !ok {
		appErr = apperrors.Internal(err)
	}
	c.JSON(appErr.HTTPStatus, appErr.Response(middleware.RequestIDFrom(c)))
}

func RespondOK(c *gin.Context, data any) { respond(c, http.StatusOK, data) }

func RespondCreated(c *gin.Context, data any) { respond(c, http.StatusCreated, data) }

func respond(c *gin.Context, code int, data any) {
	c.JSON(code, DataResponse{Data: data})
}
