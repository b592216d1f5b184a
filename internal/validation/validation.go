// Package validation holds the input checks applied before any store call.
package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"fbmp/internal/store"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var ErrInvalidStatus = errors.New("status must be a valid number")

// facebookDomains are accepted as exact hosts or as parents of a subdomain.
var facebookDomains = []string{
	"facebook.com",
	"www.facebook.com",
	"m.facebook.com",
	"fb.com",
	"www.fb.com",
}

// IsFacebookURL reports whether raw is an absolute http(s) URL on a
// Facebook-family host. Any path is accepted: share links, marketplace items
// and posts all identify a listing.
func IsFacebookURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}

	host := strings.ToLower(u.Hostname())
	if host == "" {
		return false
	}

	for _, domain := range facebookDomains {
		if host == domain || strings.HasSuffix(host, "."+domain) {
			return true
		}
	}
	return false
}

// IsUUID reports whether s is a canonical 8-4-4-4-12 RFC 4122 UUID of
// version 1 through 5.
func IsUUID(s string) bool {
	if len(s) != 36 {
		return false
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return false
	}
	if v := id.Version(); v < 1 || v > 5 {
		return false
	}
	return id.Variant() == uuid.RFC4122
}

// ParseStatusParam parses a status path segment.
func ParseStatusParam(s string) (store.Status, error) {
	return parseStatusString(s)
}

// CoerceStatus turns a raw JSON status value into a Status. A JSON integer or
// a string of decimal digits is accepted. An absent or null value yields nil.
func CoerceStatus(raw json.RawMessage) (*store.Status, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	var s string
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, ErrInvalidStatus
		}
	} else {
		s = string(raw)
	}

	status, err := parseStatusString(s)
	if err != nil {
		return nil, err
	}
	return &status, nil
}

func parseStatusString(s string) (store.Status, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, ErrInvalidStatus
	}
	// The column is a 32-bit integer.
	if n < math.MinInt32 || n > math.MaxInt32 {
		return 0, ErrInvalidStatus
	}
	return store.Status(n), nil
}

// New returns a validator with the fburl tag registered.
func New() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("fburl", func(fl validator.FieldLevel) bool {
		return IsFacebookURL(fl.Field().String())
	})
	return v
}

// Describe flattens validator errors into one caller-facing sentence.
func Describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", field))
		case "fburl":
			msgs = append(msgs, fmt.Sprintf("%s must be a Facebook URL", field))
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s characters", field, fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is not valid", field))
		}
	}
	return strings.Join(msgs, ", ")
}
