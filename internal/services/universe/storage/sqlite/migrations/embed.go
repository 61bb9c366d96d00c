// Package migrations contains embedded SQL migrations for the save store.
package migrations

import "embed"

//go:embed saves/*.sql
var FS embed.FS

// Root is the directory inside FS holding the migrations.
const Root = "saves"
