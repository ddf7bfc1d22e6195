// Package migrations embeds the wallet schema so the binary can migrate a
// database without a checkout of this directory.
package migrations

import "embed"

// FS holds every *.sql file of this directory. Files apply in name order.
//
//go:embed *.sql
var FS embed.FS
