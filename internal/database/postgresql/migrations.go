package postgresql

import "embed"

// Migrations holds the schema for the listings table, in golang-migrate layout.
//
//go:embed migrations/*.sql
var Migrations embed.FS
