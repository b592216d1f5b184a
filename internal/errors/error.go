package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// ErrorCode enum for machine-readable errors
type ErrorCode string

const (
	ErrInvalidInput ErrorCode = "INVALID_INPUT"
	ErrDuplicate    ErrorCode = "DUPLICATE"   // Link already tracked
	ErrNotFound     ErrorCode = "NOT_FOUND"   // Store has no such row
	ErrStore        ErrorCode = "STORE_ERROR" // Store rejected or failed the call
	ErrInternal     ErrorCode = "INTERNAL"    // Anything we did not expect

	ErrMethodNotAllowed ErrorCode = "METHOD_NOT_ALLOWED"
)

// AppError carries the "User View" and the "System View"
type AppError struct {
	Code     ErrorCode // Machine code (for frontend logic)
	Message  string    // Safe user-facing message
	Details  string    // Optional extra context returned to the caller
	Internal error     // Original error (DB error, etc)
	Stack    string    // Stack trace for audit
}

// Implement the standard error interface
func (e *AppError) Error() string {
	if e.Internal != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Internal)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Internal
}

// New factory to capture stack trace automatically
func New(code ErrorCode, msg string, internal error) *AppError {
	return &AppError{
		Code:     code,
		Message:  msg,
		Internal: internal,
		Stack:    string(debug.Stack()),
	}
}

// WithDetails sets the caller-visible details and returns the same error.
func (e *AppError) WithDetails(details string) *AppError {
	e.Details = details
	return e
}

// Is and As forward to the standard library so callers importing this
// package as errors keep the usual helpers.
func Is(err, target error) bool { return stderrors.Is(err, target) }

func As(err error, target any) bool { return stderrors.As(err, target) }

// Store wraps a store failure. The store's message is passed through as details.
func Store(msg string, err error) *AppError {
	appErr := New(ErrStore, msg, err)
	if err != nil {
		appErr.Details = err.Error()
	}
	return appErr
}

// Status maps an error code to its HTTP status.
func Status(code ErrorCode) int {
	switch code {
	case ErrInvalidInput:
		return http.StatusBadRequest
	case ErrDuplicate:
		return http.StatusConflict
	case ErrNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Response is the error envelope written for every failed request.
type Response struct {
	Error     string    `json:"error"`
	Details   string    `json:"details,omitempty"`
	Code      ErrorCode `json:"code"`
	RequestID string    `json:"request_id,omitempty"`
}

func RespondError(w http.ResponseWriter, r *http.Request, err error) {
	reqID := middleware.GetReqID(r.Context())

	// 1. Unwrap the AppError
	var appErr *AppError
	if !stderrors.As(err, &appErr) {
		// If it's a generic Go error (e.g. from a library), wrap it as Internal
		appErr = New(ErrInternal, "Internal server error", err)
	}

	// 2. Map Error Code -> HTTP Status
	status := Status(appErr.Code)

	// 3. LOGGING
	logFields := []any{
		"req_id", reqID,
		"method", r.Method,
		"path", r.URL.Path,
		"code", appErr.Code,
		"user_msg", appErr.Message,
	}

	if status == http.StatusInternalServerError {
		// For 500s: Log EVERYTHING (Internal error + Stack trace)
		logFields = append(logFields, "internal_err", appErr.Internal, "stack", appErr.Stack)
		slog.ErrorContext(r.Context(), "Internal Server Error", logFields...)
	} else {
		if appErr.Internal != nil {
			logFields = append(logFields, "internal_details", appErr.Internal)
		}
		slog.WarnContext(r.Context(), "Request Failed", logFields...)
	}

	// UNHANDLED errors never leak their internals.
	details := appErr.Details
	if appErr.Code == ErrInternal {
		details = ""
	}

	RespondJSON(w, status, Response{
		Error:     appErr.Message,
		Details:   details,
		Code:      appErr.Code,
		RequestID: reqID,
	})
}

// RespondJSON is a handy helper for success cases too
func RespondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

// Recoverer turns a panic inside a handler into an INTERNAL JSON response.
func Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rvr := recover(); rvr != nil {
				if rvr == http.ErrAbortHandler {
					panic(rvr)
				}
				RespondError(w, r, New(ErrInternal, "Internal server error", fmt.Errorf("panic: %v", rvr)))
			}
		}()

		next.ServeHTTP(w, r)
	})
}

var probeMethods = []string{
	http.MethodGet,
	http.MethodPost,
	http.MethodPut,
	http.MethodPatch,
	http.MethodDelete,
	http.MethodOptions,
}

// MethodNotAllowed answers 405 with an Allow header listing what the route does accept.
func MethodNotAllowed(routes chi.Routes) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var allowed []string
		for _, method := range probeMethods {
			if routes.Match(chi.NewRouteContext(), method, r.URL.Path) {
				allowed = append(allowed, method)
			}
		}

		w.Header().Set("Allow", strings.Join(allowed, ", "))
		RespondJSON(w, http.StatusMethodNotAllowed, Response{
			Error:     "Method not allowed",
			Code:      ErrMethodNotAllowed,
			RequestID: middleware.GetReqID(r.Context()),
		})
	}
}

// NotFound answers unknown routes with the standard envelope.
func NotFound(w http.ResponseWriter, r *http.Request) {
	RespondJSON(w, http.StatusNotFound, Response{
		Error:     "Route not found",
		Code:      ErrNotFound,
		RequestID: middleware.GetReqID(r.Context()),
	})
}
