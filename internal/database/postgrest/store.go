package postgrest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"fbmp/internal/store"
)

const listingsTable = "listings"

var _ store.Store = (*Store)(nil)

type Store struct {
	client *Client
}

func NewStore(baseURL, key string, timeout time.Duration) *Store {
	return &Store{client: NewClient(baseURL, key, timeout)}
}

type insertBody struct {
	Link    string  `json:"link"`
	Product *string `json:"product,omitempty"`
	Status  int     `json:"status"`
}

type patchBody struct {
	Link      *string   `json:"link,omitempty"`
	Status    *int      `json:"status,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s *Store) List(ctx context.Context) ([]store.Listing, error) {
	return s.selectListings(ctx, url.Values{
		"select": {"*"},
		"order":  {"created_at.desc"},
	})
}

func (s *Store) ListByStatus(ctx context.Context, status store.Status) ([]store.Listing, error) {
	return s.selectListings(ctx, url.Values{
		"select": {"*"},
		"status": {"eq." + strconv.Itoa(int(status))},
		"order":  {"created_at.desc"},
	})
}

func (s *Store) Get(ctx context.Context, id string) (store.Listing, error) {
	rows, err := s.selectListings(ctx, url.Values{
		"select": {"*"},
		"id":     {"eq." + id},
	})
	if err != nil {
		return store.Listing{}, err
	}
	if len(rows) == 0 {
		return store.Listing{}, store.ErrNotFound
	}
	return rows[0], nil
}

func (s *Store) Create(ctx context.Context, l store.NewListing) (store.Listing, error) {
	resp, err := s.client.do(ctx, request{
		method: http.MethodPost,
		table:  listingsTable,
		query:  url.Values{"select": {"*"}},
		prefer: "return=representation",
		body:   []insertBody{{Link: l.Link, Product: l.Product, Status: int(l.Status)}},
	})
	if err != nil {
		return store.Listing{}, mapError("create listing", err)
	}
	return single(resp.body)
}

func (s *Store) Update(ctx context.Context, id string, patch store.ListingPatch) (store.Listing, error) {
	body := patchBody{Link: patch.Link, UpdatedAt: patch.UpdatedAt.UTC()}
	if patch.Status != nil {
		status := int(*patch.Status)
		body.Status = &status
	}

	resp, err := s.client.do(ctx, request{
		method: http.MethodPatch,
		table:  listingsTable,
		query:  url.Values{"id": {"eq." + id}, "select": {"*"}},
		prefer: "return=representation",
		body:   body,
	})
	if err != nil {
		return store.Listing{}, mapError("update listing", err)
	}
	return single(resp.body)
}

func (s *Store) Delete(ctx context.Context, id string) error {
	_, err := s.client.do(ctx, request{
		method: http.MethodDelete,
		table:  listingsTable,
		query:  url.Values{"id": {"eq." + id}},
		prefer: "return=minimal",
	})
	if err != nil {
		if err = mapError("delete listing", err); errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return err
	}
	return nil
}

func (s *Store) CountCreatedBetween(ctx context.Context, from, to time.Time) (int64, error) {
	query := url.Values{"select": {"id"}, "limit": {"1"}}
	query.Add("created_at", "gte."+from.UTC().Format(time.RFC3339Nano))
	query.Add("created_at", "lt."+to.UTC().Format(time.RFC3339Nano))

	resp, err := s.client.do(ctx, request{
		method: http.MethodGet,
		table:  listingsTable,
		query:  query,
		prefer: "count=exact",
	})
	if err != nil {
		return 0, mapError("count listings", err)
	}
	return parseContentRange(resp.header.Get("Content-Range"))
}

func (s *Store) Close() error {
	s.client.httpClient.CloseIdleConnections()
	return nil
}

func (s *Store) selectListings(ctx context.Context, query url.Values) ([]store.Listing, error) {
	resp, err := s.client.do(ctx, request{
		method: http.MethodGet,
		table:  listingsTable,
		query:  query,
	})
	if err != nil {
		return nil, mapError("list listings", err)
	}

	rows := []store.Listing{}
	if err := json.Unmarshal(resp.body, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse listings: %w", err)
	}
	return rows, nil
}

// single reads a return=representation body. PATCH on an unmatched filter
// answers 200 with an empty array.
func single(body []byte) (store.Listing, error) {
	var rows []store.Listing
	if err := json.Unmarshal(body, &rows); err != nil {
		return store.Listing{}, fmt.Errorf("failed to parse listing: %w", err)
	}
	if len(rows) == 0 {
		return store.Listing{}, store.ErrNotFound
	}
	return rows[0], nil
}

// parseContentRange reads the total from "0-0/42" or "*/0".
func parseContentRange(v string) (int64, error) {
	_, total, ok := strings.Cut(v, "/")
	if !ok || total == "*" {
		return 0, fmt.Errorf("postgrest: no exact count in Content-Range %q", v)
	}
	n, err := strconv.ParseInt(total, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("postgrest: bad Content-Range %q: %w", v, err)
	}
	return n, nil
}

func mapError(op string, err error) error {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if apiErr.Code == store.UniqueViolation || apiErr.StatusCode == http.StatusConflict {
			return store.ErrDuplicate
		}
		// Malformed uuid in an id filter.
		if apiErr.Code == "22P02" {
			return store.ErrNotFound
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
