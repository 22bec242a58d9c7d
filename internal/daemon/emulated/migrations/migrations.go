// Package migrations embeds the emulated daemon's schema migrations.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
