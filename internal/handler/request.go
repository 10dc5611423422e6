package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"

	"github.com/pkordes/office-listings/backend/internal/domain"
)

// numericText holds a JSON number or string verbatim. Coordinates are decoded
// into it so that "abc" reaches the validator as a field error instead of
// failing the whole body.
type numericText string

// UnmarshalJSON accepts a quoted string or any other JSON literal.
func (n *numericText) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*n = numericText(s)
		return nil
	}
	*n = numericText(data)
	return nil
}

func (n *numericText) ptr() *string {
	if n == nil {
		return nil
	}
	s := string(*n)
	return &s
}

// decodeJSON reads the request body into dst. An empty body leaves dst at its
// zero value. On failure it writes the error response and returns false.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}

	var (
		maxErr  *http.MaxBytesError
		typeErr *json.UnmarshalTypeError
	)
	switch {
	case errors.As(err, &maxErr):
		writeError(w, http.StatusRequestEntityTooLarge, "payload_too_large", "request body too large", nil)
	case errors.As(err, &typeErr) && typeErr.Field != "":
		field := typeErr.Field
		if i := strings.IndexByte(field, '.'); i >= 0 {
			field = field[:i]
		}
		msg := typeMessage(field, typeErr.Type)
		writeError(w, http.StatusUnprocessableEntity, "validation_error", msg, domain.FieldErrors{field: {msg}})
	default:
		writeError(w, http.StatusBadRequest, "bad_request", "request body is not valid JSON", nil)
	}
	return false
}

// typeMessage renders a JSON type mismatch the same way the validator
// renders rule failures.
func typeMessage(field string, t reflect.Type) string {
	label := strings.ReplaceAll(field, "_", " ")
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int16, reflect.Int32, reflect.Int64:
		return fmt.Sprintf("The %s must be an integer.", label)
	case reflect.Bool:
		return fmt.Sprintf("The %s field must be true or false.", label)
	case reflect.Slice:
		return fmt.Sprintf("The %s must be an array.", label)
	case reflect.String:
		return fmt.Sprintf("The %s must be a string.", label)
	default:
		return fmt.Sprintf("The %s is invalid.", label)
	}
}

// pathID binds the int64 path parameter name. On failure it writes a 400
// and returns false.
func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	var id int64
	err := runtime.BindStyledParameterWithOptions("simple", name, chi.URLParam(r, name), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_parameter", fmt.Sprintf("invalid format for parameter %s", name), nil)
		return 0, false
	}
	return id, true
}

// searchParams is the query string of GET /listings.
type searchParams struct {
	OwnerID   *int64
	VisitorID *int64
	Lat       *float64
	Lng       *float64
	Page      *int
}

func bindSearchParams(r *http.Request) (searchParams, error) {
	var p searchParams
	q := r.URL.Query()
	bindings := []struct {
		name string
		dst  any
	}{
		{"owner_id", &p.OwnerID},
		{"visitor_id", &p.VisitorID},
		{"lat", &p.Lat},
		{"lng", &p.Lng},
		{"page", &p.Page},
	}
	for _, b := range bindings {
		if err := runtime.BindQueryParameter("form", true, false, b.name, q, b.dst); err != nil {
			return searchParams{}, fmt.Errorf("invalid format for parameter %s: %w", b.name, err)
		}
	}
	return p, nil
}

func (p searchParams) filter() domain.ListingFilter {
	f := domain.ListingFilter{
		OwnerID:   p.OwnerID,
		VisitorID: p.VisitorID,
		Lat:       p.Lat,
		Lng:       p.Lng,
	}
	if p.Page != nil {
		f.Page = *p.Page
	}
	return f
}
