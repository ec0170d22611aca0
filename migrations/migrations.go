// Package migrations embeds the Postgres schema for the booking ledger.
package migrations

import "embed"

// FS holds the ordered golang-migrate SQL files.
//
//go:embed *.sql
var FS embed.FS
