package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fbmp/internal/database/postgresql/repo"
	"fbmp/internal/store"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

var _ store.Store = (*Store)(nil)

// Store serves the listings table straight from Postgres.
type Store struct {
	db   DBPool
	repo *repo.Queries
}

func NewStore(db DBPool) *Store {
	return &Store{
		db:   db,
		repo: repo.New(db),
	}
}

func (s *Store) List(ctx context.Context) ([]store.Listing, error) {
	rows, err := s.repo.ListListings(ctx)
	if err != nil {
		return nil, fmt.Errorf("list listings: %w", err)
	}
	return toListings(rows), nil
}

func (s *Store) ListByStatus(ctx context.Context, status store.Status) ([]store.Listing, error) {
	rows, err := s.repo.ListListingsByStatus(ctx, int32(status))
	if err != nil {
		return nil, fmt.Errorf("list listings by status: %w", err)
	}
	return toListings(rows), nil
}

func (s *Store) Get(ctx context.Context, id string) (store.Listing, error) {
	var listingID pgtype.UUID
	if err := listingID.Scan(id); err != nil {
		// An id that cannot be a uuid cannot be in the table.
		return store.Listing{}, store.ErrNotFound
	}

	row, err := s.repo.GetListingByID(ctx, listingID)
	if err != nil {
		return store.Listing{}, mapError("get listing", err)
	}
	return toListing(row), nil
}

func (s *Store) Create(ctx context.Context, l store.NewListing) (store.Listing, error) {
	row, err := s.repo.CreateListing(ctx, repo.CreateListingParams{
		Link:    l.Link,
		Product: textFromPtr(l.Product),
		Status:  int32(l.Status),
	})
	if err != nil {
		return store.Listing{}, mapError("create listing", err)
	}
	return toListing(row), nil
}

func (s *Store) Update(ctx context.Context, id string, patch store.ListingPatch) (store.Listing, error) {
	var listingID pgtype.UUID
	if err := listingID.Scan(id); err != nil {
		return store.Listing{}, store.ErrNotFound
	}

	params := repo.UpdateListingParams{
		ID:        listingID,
		Link:      textFromPtr(patch.Link),
		UpdatedAt: pgtype.Timestamptz{Time: patch.UpdatedAt, Valid: true},
	}
	if patch.Status != nil {
		params.Status = pgtype.Int4{Int32: int32(*patch.Status), Valid: true}
	}

	row, err := s.repo.UpdateListing(ctx, params)
	if err != nil {
		return store.Listing{}, mapError("update listing", err)
	}
	return toListing(row), nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	var listingID pgtype.UUID
	if err := listingID.Scan(id); err != nil {
		return nil
	}

	if _, err := s.repo.DeleteListing(ctx, listingID); err != nil {
		return fmt.Errorf("delete listing: %w", err)
	}
	return nil
}

func (s *Store) CountCreatedBetween(ctx context.Context, from, to time.Time) (int64, error) {
	n, err := s.repo.CountListingsCreatedBetween(ctx, repo.CountListingsCreatedBetweenParams{
		From: pgtype.Timestamptz{Time: from, Valid: true},
		To:   pgtype.Timestamptz{Time: to, Valid: true},
	})
	if err != nil {
		return 0, fmt.Errorf("count listings: %w", err)
	}
	return n, nil
}

func (s *Store) Close() error {
	s.db.Close()
	return nil
}

func mapError(op string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return store.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == store.UniqueViolation {
		return store.ErrDuplicate
	}

	return fmt.Errorf("%s: %w", op, err)
}

func textFromPtr(s *string) pgtype.Text {
	if s == nil {
		return pgtype.Text{}
	}
	return pgtype.Text{String: *s, Valid: true}
}

func toListing(row repo.Listing) store.Listing {
	l := store.Listing{
		ID:        uuid.UUID(row.ID.Bytes).String(),
		Link:      row.Link,
		Status:    store.Status(row.Status),
		CreatedAt: row.CreatedAt.Time.UTC(),
		UpdatedAt: row.UpdatedAt.Time.UTC(),
	}
	if row.Product.Valid {
		product := row.Product.String
		l.Product = &product
	}
	return l
}

func toListings(rows []repo.Listing) []store.Listing {
	out := make([]store.Listing, len(rows))
	for i, row := range rows {
		out[i] = toListing(row)
	}
	return out
}
