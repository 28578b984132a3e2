package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"knowledge-tool/internal/contextutil"
	"knowledge-tool/internal/service"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Use JSON tag names in error messages
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decodeJSON reads a JSON body into dst and validates it.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return fmt.Errorf("invalid request body: %w", err)
	}
	return validateStruct(dst)
}

func validateStruct(s any) error {
	if err := validate.Struct(s); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			msgs := make([]string, 0, len(validationErrors))
			for _, e := range validationErrors {
				msgs = append(msgs, formatFieldError(e))
			}
			return errors.New(strings.Join(msgs, "; "))
		}
		return err
	}
	return nil
}

func formatFieldError(e validator.FieldError) string {
	field := e.Field()
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "max":
		return fmt.Sprintf("%s must be at most %s long", field, e.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, e.Param())
	case "startswith":
		return fmt.Sprintf("%s must start with %q", field, e.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

// parseID reads the {id} URL parameter.
func parseID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("id must be a positive integer")
	}
	return id, nil
}

// parseBool reads an optional boolean query parameter.
func parseBool(r *http.Request, name string) (bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean", name)
	}
	return v, nil
}

// parseDate accepts YYYY-MM-DD (local midnight) or RFC3339. Empty input yields nil.
func parseDate(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.ParseInLocation(time.DateOnly, raw, time.Local); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: use YYYY-MM-DD or RFC3339", raw)
	}
	return &t, nil
}

// parseDateParam parses the named query parameter with parseDate.
func parseDateParam(r *http.Request, name string) (*time.Time, error) {
	t, err := parseDate(r.URL.Query().Get(name))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return t, nil
}

// writeJSON writes v as a JSON response.
func writeJSON(w http.ResponseWriter, r *http.Request, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		ctx := r.Context()
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Error: message,
	})
}

// handleServiceError maps service errors to appropriate HTTP status codes and responses.
func handleServiceError(w http.ResponseWriter, ctx context.Context, err error, defaultMsg string) {
	logger := contextutil.LoggerFromContext(ctx)

	if ctx.Err() != nil {
		// The client went away; nobody reads the response
		logger.DebugContext(ctx, "request canceled", "error", err)
		return
	}

	var validationErr *service.ValidationError
	if errors.As(err, &validationErr) {
		logger.WarnContext(ctx, "validation failed", "error", err)
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Validation error: %s", validationErr.Error()))
		return
	}

	switch {
	case errors.Is(err, service.ErrInvalidInput):
		logger.WarnContext(ctx, "invalid input", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid input")
	case errors.Is(err, service.ErrNotFound):
		logger.InfoContext(ctx, "resource not found", "error", err)
		writeError(w, http.StatusNotFound, "Resource not found")
	case errors.Is(err, service.ErrSearchUnavailable):
		logger.WarnContext(ctx, "search unavailable", "error", err)
		writeError(w, http.StatusServiceUnavailable, "Search unavailable, try again later")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		logger.WarnContext(ctx, "operation interrupted", "error", err)
		writeError(w, http.StatusServiceUnavailable, defaultMsg+", try again later")
	case errors.Is(err, service.ErrConflict):
		logger.InfoContext(ctx, "request conflicts with current state", "error", err)
		writeError(w, http.StatusConflict, conflictMessage(err))
	default:
		logger.ErrorContext(ctx, "service error", "error", err)
		writeError(w, http.StatusInternalServerError, defaultMsg+", try again later")
	}
}

// conflictMessage strips the sentinel prefix so the client sees only the reason.
func conflictMessage(err error) string {
	msg := strings.TrimPrefix(err.Error(), service.ErrConflict.Error()+": ")
	if msg == "" {
		return "Conflict"
	}
	return strings.ToUpper(msg[:1]) + msg[1:]
}
