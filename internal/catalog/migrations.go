package catalog

import "embed"

// Migrations holds the postgres schema and seed for PostgresStore.
//
//go:embed migrations/*.sql
var Migrations embed.FS

const MigrationsDir = "migrations"
