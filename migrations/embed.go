// Package migrations embeds the SQL migration files so that the migrate
// command and integration tests apply the same schema through goose.
package migrations

import "embed"

// FS holds all *.sql migration files embedded at compile time.
//
//go:embed *.sql
var FS embed.FS
