// Package migrations holds the goose SQL migrations for the identity store.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
