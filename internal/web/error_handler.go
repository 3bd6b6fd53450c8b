package web

import (
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	rtdebug "runtime/debug"

	"garage/internal/logger"
	"garage/internal/response"
	"garage/internal/router"
)

// ErrorPageData feeds the error template.
type ErrorPageData struct {
	pageMeta
	StatusCode int
	Message    string
	Detail     string
}

// ErrorHandler renders HTML error pages for everything the dispatcher
// catches: unmatched routes, wrong methods, typed HTTP errors, and
// uncaught handler failures. Unexpected failures become a generic 500;
// in debug mode the page carries the failure message and stack instead,
// otherwise full detail goes to the log only.
func ErrorHandler(tmpl *template.Template, log *slog.Logger, debug bool) router.ErrorHandler {
	return func(ctx *router.Context, err error) {
		data := ErrorPageData{
			StatusCode: http.StatusInternalServerError,
			Message:    "Something went wrong on our side.",
		}
		data.Title = "Internal Server Error"

		var httpErr response.HTTPError
		switch {
		case errors.Is(err, router.ErrNotFound):
			data.StatusCode = http.StatusNotFound
			data.Title = "Page Not Found"
			data.Message = "The page you are looking for does not exist."
		case errors.Is(err, router.ErrMethodNotAllowed):
			data.StatusCode = http.StatusMethodNotAllowed
			data.Title = "Method Not Allowed"
			data.Message = "That HTTP method is not supported for this page."
		case errors.As(err, &httpErr):
			data.StatusCode = httpErr.Status
			data.Title = http.StatusText(httpErr.Status)
			data.Message = httpErr.Message
		}

		if data.StatusCode >= http.StatusInternalServerError {
			var perr router.PanicError
			isPanic := errors.As(err, &perr)

			if debug {
				data.Message = err.Error()
				if isPanic {
					data.Detail = string(perr.Stack())
				} else {
					// No recovery-point stack for a returned error, so
					// show the dispatch stack alongside the full chain.
					data.Detail = fmt.Sprintf("%+v\n\n%s", err, rtdebug.Stack())
				}
			} else {
				attrs := []any{
					logger.Component("dispatcher"),
					logger.Error(err),
					slog.String("method", ctx.Request().Method),
					slog.String("path", ctx.Request().URL.Path),
				}
				if isPanic {
					attrs = append(attrs, slog.String("stack", string(perr.Stack())))
				}
				log.ErrorContext(ctx, "unhandled request failure", attrs...)
			}
		}

		w := ctx.ResponseWriter()
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(data.StatusCode)
		if terr := tmpl.Execute(w, data); terr != nil {
			fmt.Fprint(w, data.Message)
		}
	}
}
