package router

import (
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/julienschmidt/httprouter"
	"github.com/shandysiswandi/otpdash/internal/pkg/goerror"
)

const maxBodyBytes = 1 << 20

// Request wraps http.Request with helpers for inbound handlers.
type Request struct {
	// Request is the underlying http.Request.
	*http.Request
}

// GetParam reads a path parameter from the request context (as stored by httprouter).
func (r *Request) GetParam(key string) string {
	return httprouter.ParamsFromContext(r.Context()).ByName(key)
}

// GetQuery returns the query value for key as sent.
func (r *Request) GetQuery(key string) string {
	return r.URL.Query().Get(key)
}

// GetCookie returns the value of the named cookie, or "".
func (r *Request) GetCookie(name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}

// IsSecure reports whether the client reached us over TLS, directly or
// through a proxy that sets X-Forwarded-Proto.
func (r *Request) IsSecure() bool {
	if r.TLS != nil {
		return true
	}
	return strings.EqualFold(strings.TrimSpace(r.Header.Get("X-Forwarded-Proto")), "https")
}

// DecodeBody decodes the JSON body into dst.
func (r *Request) DecodeBody(dst any) error {
	if r == nil || r.Body == nil {
		return goerror.NewInvalidFormat()
	}

	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		return goerror.NewInvalidFormat()
	}

	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return goerror.NewInvalidFormat()
	}

	return nil
}

// FormOrJSON decodes an urlencoded or multipart form into dst using dst's
// json tags, and falls back to DecodeBody for any other content type.
func (r *Request) FormOrJSON(dst any) error {
	if r == nil || r.Body == nil {
		return goerror.NewInvalidFormat()
	}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/x-www-form-urlencoded", "multipart/form-data":
	default:
		return r.DecodeBody(dst)
	}

	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(maxBodyBytes); err != nil {
			return goerror.NewInvalidFormat()
		}
	} else if err := r.ParseForm(); err != nil {
		return goerror.NewInvalidFormat()
	}

	fields := make(map[string]string, len(r.PostForm))
	for k, v := range r.PostForm {
		if len(v) > 0 {
			fields[k] = v[0]
		}
	}

	raw, err := json.Marshal(fields)
	if err != nil {
		return goerror.NewInvalidFormat()
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return goerror.NewInvalidFormat()
	}

	return nil
}
