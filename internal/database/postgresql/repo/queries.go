package repo

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const listingColumns = `id, link, product, status, created_at, updated_at`

const listListings = `SELECT ` + listingColumns + ` FROM listings
ORDER BY created_at DESC`

func (q *Queries) ListListings(ctx context.Context) ([]Listing, error) {
	rows, err := q.db.Query(ctx, listListings)
	if err != nil {
		return nil, err
	}
	return collectListings(rows)
}

const listListingsByStatus = `SELECT ` + listingColumns + ` FROM listings
WHERE status = $1
ORDER BY created_at DESC`

func (q *Queries) ListListingsByStatus(ctx context.Context, status int32) ([]Listing, error) {
	rows, err := q.db.Query(ctx, listListingsByStatus, status)
	if err != nil {
		return nil, err
	}
	return collectListings(rows)
}

const getListingByID = `SELECT ` + listingColumns + ` FROM listings
WHERE id = $1`

func (q *Queries) GetListingByID(ctx context.Context, id pgtype.UUID) (Listing, error) {
	row := q.db.QueryRow(ctx, getListingByID, id)
	return scanListing(row)
}

const createListing = `INSERT INTO listings (link, product, status)
VALUES ($1, $2, $3)
RETURNING ` + listingColumns

type CreateListingParams struct {
	Link    string
	Product pgtype.Text
	Status  int32
}

func (q *Queries) CreateListing(ctx context.Context, arg CreateListingParams) (Listing, error) {
	row := q.db.QueryRow(ctx, createListing, arg.Link, arg.Product, arg.Status)
	return scanListing(row)
}

const updateListing = `UPDATE listings
SET link = COALESCE($2, link),
    status = COALESCE($3, status),
    updated_at = $4
WHERE id = $1
RETURNING ` + listingColumns

type UpdateListingParams struct {
	ID        pgtype.UUID
	Link      pgtype.Text // NULL leaves the column untouched
	Status    pgtype.Int4 // NULL leaves the column untouched
	UpdatedAt pgtype.Timestamptz
}

func (q *Queries) UpdateListing(ctx context.Context, arg UpdateListingParams) (Listing, error) {
	row := q.db.QueryRow(ctx, updateListing, arg.ID, arg.Link, arg.Status, arg.UpdatedAt)
	return scanListing(row)
}

const deleteListing = `DELETE FROM listings
WHERE id = $1`

func (q *Queries) DeleteListing(ctx context.Context, id pgtype.UUID) (int64, error) {
	tag, err := q.db.Exec(ctx, deleteListing, id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

const countListingsCreatedBetween = `SELECT count(*) FROM listings
WHERE created_at >= $1 AND created_at < $2`

type CountListingsCreatedBetweenParams struct {
	From pgtype.Timestamptz
	To   pgtype.Timestamptz
}

func (q *Queries) CountListingsCreatedBetween(ctx context.Context, arg CountListingsCreatedBetweenParams) (int64, error) {
	row := q.db.QueryRow(ctx, countListingsCreatedBetween, arg.From, arg.To)
	var count int64
	err := row.Scan(&count)
	return count, err
}

func scanListing(row pgx.Row) (Listing, error) {
	var i Listing
	err := row.Scan(
		&i.ID,
		&i.Link,
		&i.Product,
		&i.Status,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

func collectListings(rows pgx.Rows) ([]Listing, error) {
	defer rows.Close()
	items := []Listing{}
	for rows.Next() {
		i, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
