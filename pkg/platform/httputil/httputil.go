package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	dErrors "campus/pkg/domain-errors"
)

// maxBodyBytes caps decoded request bodies.
const maxBodyBytes = 1 << 20

var validate = newValidator()

// newValidator reports fields by their JSON names.
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

// Validatable requests run their own parsing after struct tag validation.
type Validatable interface {
	Validate() error
}

// DecodeAndPrepare decodes a JSON body into T, checks its `validate` tags and
// then its Validate method. On failure it writes the error response and
// returns false.
func DecodeAndPrepare[T any](w http.ResponseWriter, r *http.Request, logger *slog.Logger, ctx context.Context, requestID string) (*T, bool) {
	req := new(T)
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(req); err != nil {
		if logger != nil {
			logger.WarnContext(ctx, "failed to decode request body", "request_id", requestID, "error", err)
		}
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid JSON body"))
		return nil, false
	}
	if err := validate.Struct(req); err != nil {
		WriteError(w, validationError(err))
		return nil, false
	}
	if v, ok := any(req).(Validatable); ok {
		if err := v.Validate(); err != nil {
			WriteError(w, err)
			return nil, false
		}
	}
	return req, true
}

func validationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return dErrors.Wrap(err, dErrors.CodeValidation, "invalid request")
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s must satisfy %s=%s", fe.Field(), fe.Tag(), fe.Param()))
			continue
		}
		msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
	}
	return dErrors.New(dErrors.CodeValidation, strings.Join(msgs, "; "))
}

// WriteJSON encodes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates a domain error to a JSON error envelope.
// Internal errors never leak their description.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	body := map[string]any{"error": string(code)}
	if code != dErrors.CodeInternal {
		body["error_description"] = describe(err)
	}
	var detailer interface{ Details() map[string]any }
	if errors.As(err, &detailer) {
		body["details"] = detailer.Details()
	}
	WriteJSON(w, StatusFor(code), body)
}

func describe(err error) string {
	var de *dErrors.Error
	if errors.As(err, &de) {
		return de.Message
	}
	return err.Error()
}

// StatusFor maps an error code to an HTTP status.
func StatusFor(code dErrors.Code) int {
	switch code {
	case dErrors.CodeValidation, dErrors.CodeInvalidInput, dErrors.CodeBadRequest, dErrors.CodeInvalidRange:
		return http.StatusBadRequest
	case dErrors.CodeUnauthorized:
		return http.StatusUnauthorized
	case dErrors.CodeForbidden:
		return http.StatusForbidden
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeConflict, dErrors.CodeSchedulingConflict, dErrors.CodeDuplicateCourse, dErrors.CodeInvalidState:
		return http.StatusConflict
	case dErrors.CodeEmptySchedule, dErrors.CodeEmptyRegistration, dErrors.CodeCreditLimitExceeded:
		return http.StatusUnprocessableEntity
	case dErrors.CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
