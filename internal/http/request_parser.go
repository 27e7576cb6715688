// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating request
// payloads and query parameters.

package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"maintrack/internal/core"
)

const maxJSONBody = 1 << 20

var errValidation = errors.New("validation failed")

// Amount accepts a JSON number or a string such as "1500,50" and parses it
// with core.ParseAmount.
type Amount float64

func (a *Amount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*a = 0
		return nil
	}
	s := string(b)
	if len(b) > 0 && b[0] == '"' {
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		// empty strings are incomplete rows, dropped later
		if strings.TrimSpace(s) == "" {
			*a = 0
			return nil
		}
	}
	v, err := core.ParseAmount(s)
	if err != nil {
		return err
	}
	*a = Amount(v)
	return nil
}

// decodeJSON reads a size-limited JSON body into v and validates it.
// Malformed bodies wrap errBadRequest; struct tag failures wrap
// errValidation; bad amounts surface core.ErrInvalidAmount.
func decodeJSON(w http.ResponseWriter, r *http.Request, validate *validator.Validate, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, core.ErrInvalidAmount) {
			return err
		}
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return fmt.Errorf("%w: body larger than %d bytes", errBadRequest, maxErr.Limit)
		}
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty body", errBadRequest)
		}
		return fmt.Errorf("%w: invalid JSON payload: %v", errBadRequest, err)
	}
	if err := validate.Struct(v); err != nil {
		return describeValidation(err)
	}
	return nil
}

// describeValidation turns validator errors into one readable message.
func describeValidation(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", errValidation, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := fe.Namespace()
		if _, rest, ok := strings.Cut(field, "."); ok {
			field = rest
		}
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of [%s]", field, fe.Param()))
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s", field, fe.Param()))
		case "min":
			msgs = append(msgs, fmt.Sprintf("%s must be at least %s", field, fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s", field, fe.Tag()))
		}
	}
	return fmt.Errorf("%w: %s", errValidation, strings.Join(msgs, "; "))
}

// newValidator uses JSON field names in error namespaces.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// parseYear reads the optional ?year= filter; absent means all years.
func parseYear(r *http.Request) (int, error) {
	v := strings.TrimSpace(r.URL.Query().Get("year"))
	if v == "" {
		return 0, nil
	}
	y, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: year must be a number", errBadRequest)
	}
	return y, nil
}
