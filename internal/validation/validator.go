// Package validation turns raw request bodies into typed movie records.
//
// Failures never panic: they come back as *Error, a list of field level issues the
// HTTP layer renders as a 400 response. Unknown JSON fields are ignored.
package validation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"movies-api/internal/domain"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

// Issue describes one invalid field.
type Issue struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// Error is returned when input does not match the movie schema.
type Error struct {
	Issues []Issue
}

func (e *Error) Error() string {
	parts := make([]string, 0, len(e.Issues))
	for _, is := range e.Issues {
		if is.Field == "" {
			parts = append(parts, is.Message)
			continue
		}
		parts = append(parts, is.Field+": "+is.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Validator wraps a configured go-playground validator.
type Validator struct {
	validate *validator.Validate
}

// New creates a Validator with JSON field names and the genre vocabulary rule registered.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	// The only error RegisterValidation returns is for an empty tag.
	_ = v.RegisterValidation("notblank", validators.NotBlank)
	_ = v.RegisterValidation("genre", func(fl validator.FieldLevel) bool {
		return domain.IsGenre(fl.Field().String())
	})
	return &Validator{validate: v}
}

// ValidateFull decodes a complete movie from body. The returned record has no ID;
// a missing rate defaults to 0.
func (v *Validator) ValidateFull(ctx context.Context, body io.Reader) (domain.Movie, error) {
	var req domain.CreateMovieRequest
	if err := decodeBody(body, &req); err != nil {
		if errors.Is(err, io.EOF) {
			return domain.Movie{}, &Error{Issues: []Issue{{Rule: "required", Message: "request body is required"}}}
		}
		return domain.Movie{}, decodeError(err)
	}
	if err := v.check(ctx, req); err != nil {
		return domain.Movie{}, err
	}
	return req.Movie(), nil
}

// ValidatePartial decodes a movie patch from body. Only fields present are checked;
// an empty body is a valid no-op patch.
func (v *Validator) ValidatePartial(ctx context.Context, body io.Reader) (domain.MoviePatch, error) {
	var patch domain.MoviePatch
	if err := decodeBody(body, &patch); err != nil {
		if errors.Is(err, io.EOF) {
			return domain.MoviePatch{}, nil
		}
		return domain.MoviePatch{}, decodeError(err)
	}
	if err := v.check(ctx, patch); err != nil {
		return domain.MoviePatch{}, err
	}
	return patch, nil
}

// ValidateMovie checks an already decoded record, including its ID.
func (v *Validator) ValidateMovie(ctx context.Context, m *domain.Movie) error {
	if m == nil {
		return &Error{Issues: []Issue{{Rule: "required", Message: "movie is required"}}}
	}
	issues := []Issue{}
	if strings.TrimSpace(m.ID) == "" {
		issues = append(issues, Issue{Field: "id", Rule: "required", Message: "id is required"})
	}
	if err := v.check(ctx, m); err != nil {
		var verr *Error
		if !errors.As(err, &verr) {
			return err
		}
		issues = append(issues, verr.Issues...)
	}
	if len(issues) > 0 {
		return &Error{Issues: issues}
	}
	return nil
}

// errTrailingData marks a body holding more than one JSON value.
var errTrailingData = errors.New("unexpected data after JSON value")

// decodeBody decodes exactly one JSON value from body; anything after it is an error.
func decodeBody(body io.Reader, dst any) error {
	dec := json.NewDecoder(body)
	if err := dec.Decode(dst); err != nil {
		return err
	}
	var extra json.RawMessage
	switch err := dec.Decode(&extra); {
	case errors.Is(err, io.EOF):
		return nil
	case err == nil:
		return errTrailingData
	default:
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) || errors.Is(err, io.ErrUnexpectedEOF) {
			return errTrailingData
		}
		return err
	}
}

func (v *Validator) check(ctx context.Context, s any) error {
	err := v.validate.StructCtx(ctx, s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validate %T: %w", s, err)
	}
	issues := make([]Issue, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		issues = append(issues, Issue{
			Field:   fieldPath(fe),
			Rule:    fe.Tag(),
			Message: message(fe),
		})
	}
	return &Error{Issues: issues}
}

// fieldPath strips the Go struct name from the namespace: "CreateMovieRequest.genre[1]" -> "genre[1]".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func message(fe validator.FieldError) string {
	isList := fe.Kind() == reflect.Slice
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		if isList {
			return fmt.Sprintf("must contain at least %s item(s)", fe.Param())
		}
		if fe.Param() == "1" {
			return "must not be empty"
		}
		return fmt.Sprintf("must be at least %s characters long", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters long", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be less than or equal to %s", fe.Param())
	case "notblank":
		return "must not be blank"
	case "url":
		return "must be a valid URL"
	case "genre":
		return "must be one of: " + strings.Join(domain.Genres, ", ")
	default:
		return fmt.Sprintf("failed the %q rule", fe.Tag())
	}
}

func decodeError(err error) error {
	var (
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
		sizeErr   *http.MaxBytesError
	)
	switch {
	case errors.Is(err, errTrailingData):
		return &Error{Issues: []Issue{{Rule: "json", Message: errTrailingData.Error()}}}
	case errors.As(err, &typeErr):
		return &Error{Issues: []Issue{{
			Field:   typeErr.Field,
			Rule:    "type",
			Message: fmt.Sprintf("expected %s, received %s", kindName(typeErr.Type), typeErr.Value),
		}}}
	case errors.As(err, &syntaxErr):
		return &Error{Issues: []Issue{{Rule: "json", Message: fmt.Sprintf("malformed JSON at offset %d", syntaxErr.Offset)}}}
	case errors.Is(err, io.ErrUnexpectedEOF):
		return &Error{Issues: []Issue{{Rule: "json", Message: "malformed JSON: unexpected end of input"}}}
	case errors.As(err, &sizeErr):
		return &Error{Issues: []Issue{{Rule: "size", Message: fmt.Sprintf("request body exceeds %d bytes", sizeErr.Limit)}}}
	default:
		return fmt.Errorf("read request body: %w", err)
	}
}

func kindName(t reflect.Type) string {
	if t == nil {
		return "value"
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "integer"
	case reflect.Float32, reflect.Float64:
		return "number"
	case reflect.String:
		return "string"
	case reflect.Slice, reflect.Array:
		return "array"
	case reflect.Struct, reflect.Map:
		return "object"
	default:
		return t.Kind().String()
	}
}
