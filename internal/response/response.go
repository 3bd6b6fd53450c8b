// Package response builds the handler.Response values the application's
// handlers return: rendered templates, redirects, and error passthroughs.
package response

import (
	"bytes"
	"html/template"
	"net/http"

	"garage/internal/router"
)

// String creates a text/plain response with 200 OK status.
func String(content string) router.Response {
	return func(w http.ResponseWriter, r *http.Request) error {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		if content != "" {
			_, err := w.Write([]byte(content))
			return err
		}
		return nil
	}
}

// HTML creates a text/html response with 200 OK status.
func HTML(content string) router.Response {
	return func(w http.ResponseWriter, r *http.Request) error {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		if content != "" {
			_, err := w.Write([]byte(content))
			return err
		}
		return nil
	}
}

// Template renders an html/template with 200 OK status.
func Template(tmpl *template.Template, data any) router.Response {
	return TemplateWithStatus(tmpl, data, http.StatusOK)
}

// TemplateWithStatus renders an html/template with a custom status code.
// Output is buffered first so a failing template produces an error for
// the router's error handler instead of a half-written page.
func TemplateWithStatus(tmpl *template.Template, data any, status int) router.Response {
	return func(w http.ResponseWriter, r *http.Request) error {
		var buf bytes.Buffer
		if err := tmpl.Execute(&buf, data); err != nil {
			return err
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if status == 0 {
			status = http.StatusOK
		}
		w.WriteHeader(status)
		_, err := w.Write(buf.Bytes())
		return err
	}
}

// Redirect creates a 302 Found response.
func Redirect(url string) router.Response {
	return func(w http.ResponseWriter, r *http.Request) error {
		http.Redirect(w, r, url, http.StatusFound)
		return nil
	}
}

// RedirectSeeOther creates a 303 See Other response, used after POST
// submissions so a refresh never replays the form.
func RedirectSeeOther(url string) router.Response {
	return func(w http.ResponseWriter, r *http.Request) error {
		http.Redirect(w, r, url, http.StatusSeeOther)
		return nil
	}
}

// Error returns a response that propagates the given error to the
// router's error handler.
func Error(err error) router.Response {
	return func(w http.ResponseWriter, r *http.Request) error {
		return err
	}
}
