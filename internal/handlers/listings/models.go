package listings

import (
	"encoding/json"
	"strings"

	"fbmp/internal/store"
)

type CreateListingRequest struct {
	Link    string          `json:"link" validate:"required,max=2048,fburl"`
	Product *string         `json:"product" validate:"omitempty,max=500"`
	Status  json.RawMessage `json:"status"` // Number or numeric string; coerced in the service
}

// normalize trims the link and drops a blank product label.
func (r *CreateListingRequest) normalize() {
	r.Link = strings.TrimSpace(r.Link)
	if r.Product != nil {
		product := strings.TrimSpace(*r.Product)
		if product == "" {
			r.Product = nil
		} else {
			r.Product = &product
		}
	}
}

type UpdateListingRequest struct {
	Link   *string         `json:"link" validate:"omitempty,max=2048,fburl"` // Pointer allows distinguishing "" from nil
	Status json.RawMessage `json:"status"`
}

func (r *UpdateListingRequest) normalize() {
	if r.Link != nil {
		link := strings.TrimSpace(*r.Link)
		r.Link = &link
	}
}

// DailyStats is the number of listings created during one UTC day.
type DailyStats struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

type ListingResponse struct {
	Success bool          `json:"success"`
	Data    store.Listing `json:"data"`
}

type ListingsResponse struct {
	Success bool            `json:"success"`
	Data    []store.Listing `json:"data"`
	Count   int             `json:"count"`
}

type ListingsByStatusResponse struct {
	Success bool            `json:"success"`
	Data    []store.Listing `json:"data"`
	Count   int             `json:"count"`
	Status  store.Status    `json:"status"`
}

type StatsResponse struct {
	Success bool       `json:"success"`
	Data    DailyStats `json:"data"`
}

type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
