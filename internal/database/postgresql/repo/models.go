package repo

import (
	"github.com/jackc/pgx/v5/pgtype"
)

type Listing struct {
	ID        pgtype.UUID        `json:"id"`
	Link      string             `json:"link"`
	Product   pgtype.Text        `json:"product"`
	Status    int32              `json:"status"`
	CreatedAt pgtype.Timestamptz `json:"created_at"`
	UpdatedAt pgtype.Timestamptz `json:"updated_at"`
}
