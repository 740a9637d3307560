package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/damacus/iron-index/internal/models"
	"github.com/labstack/echo/v4"
)

// ErrorHandler renders failures as an HTML error page. Logging is left to the
// request logger so every failure is reported once.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var he *echo.HTTPError
	if !errors.As(err, &he) {
		he = HTTPError(err)
	}

	message := fmt.Sprint(he.Message)
	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(he.Code)
		return
	}

	page := models.ErrorPage{
		Code:    he.Code,
		Status:  http.StatusText(he.Code),
		Message: message,
	}
	if renderErr := c.Render(he.Code, "error", page); renderErr != nil {
		_ = c.String(he.Code, message)
	}
}
