// Package migrations embeds the SQL schema migrations so services can apply
// them at startup without shipping files alongside the binary.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
