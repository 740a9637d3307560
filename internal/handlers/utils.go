package handlers

import (
	"errors"
	"strings"

	"github.com/damacus/iron-index/internal/errs"
	"github.com/labstack/echo/v4"
)

// RequestPath returns the object path a request addresses: the decoded URL
// path without leading or trailing slashes, empty for the bucket root.
// Empty and "." segments are dropped; ".." and NUL are rejected.
func RequestPath(c echo.Context) (string, error) {
	return NormalizePath(c.Request().URL.Path)
}

// NormalizePath applies the RequestPath rules to a raw path.
func NormalizePath(raw string) (string, error) {
	if strings.ContainsRune(raw, 0) {
		return "", errs.New(errs.ErrKindInvalidPath, "path contains a NUL byte")
	}

	segments := strings.Split(raw, "/")
	kept := segments[:0]
	for _, seg := range segments {
		switch seg {
		case "", ".":
			continue
		case "..":
			return "", errs.New(errs.ErrKindInvalidPath, "path must not contain '..'")
		}
		kept = append(kept, seg)
	}
	return strings.Join(kept, "/"), nil
}

// HTTPError converts err into an echo error carrying the mapped status.
func HTTPError(err error) *echo.HTTPError {
	he := echo.NewHTTPError(errs.StatusCode(err), publicMessage(err))
	return he.SetInternal(err)
}

func publicMessage(err error) string {
	var e *errs.Error
	switch {
	case errs.IsInvalidPath(err) && errors.As(err, &e):
		return e.Message
	case errs.IsNotFound(err):
		return "Not Found"
	case errs.IsStoreUnavailable(err):
		return "Object store unavailable"
	default:
		return "Internal Server Error"
	}
}
