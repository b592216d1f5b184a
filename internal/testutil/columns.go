package testutil

// ListingsCols must match the column order of every listings SELECT/RETURNING in repo/queries.go
var ListingsCols = []string{
	"id", "link", "product", "status", "created_at", "updated_at",
}
