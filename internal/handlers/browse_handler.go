package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/damacus/iron-index/internal/models"
	"github.com/labstack/echo/v4"
)

// PathResolver maps a request path to an object body or a folder listing.
type PathResolver interface {
	Resolve(ctx context.Context, path string) (models.ObjectResult, error)
}

type BrowseHandler struct {
	resolver PathResolver
}

func NewBrowseHandler(resolver PathResolver) *BrowseHandler {
	return &BrowseHandler{resolver: resolver}
}

// Browse serves any path in the bucket: objects are streamed, prefixes are
// rendered as an index page.
func (h *BrowseHandler) Browse(c echo.Context) error {
	path, err := RequestPath(c)
	if err != nil {
		return HTTPError(err)
	}

	result, err := h.resolver.Resolve(c.Request().Context(), path)
	if err != nil {
		return HTTPError(err)
	}

	if result.IsFile() {
		body := result.File
		defer func() { _ = body.Close() }()

		// Size is -1 when the store did not report a length.
		if body.Size >= 0 {
			c.Response().Header().Set(echo.HeaderContentLength, strconv.FormatInt(body.Size, 10))
		}
		return c.Stream(http.StatusOK, echo.MIMEOctetStream, body)
	}

	return c.Render(http.StatusOK, "index", models.NewIndexPage(path, result.Folder))
}
