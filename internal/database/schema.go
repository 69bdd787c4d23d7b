package database

import _ "embed"

// Schema is the full schema produced by applying every migration, without
// the migration bookkeeping table. Tests apply it to scratch databases.
//
//go:embed schema.sql
var Schema string
