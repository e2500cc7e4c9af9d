package main

import (
	"github.com/tagql/tagql/internal/cli"

	// SQL drivers. The pure-Go driver registers as "sqlite" (the
	// default); the cgo driver registers as "sqlite3" for callers that
	// pick it explicitly.
	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"
)

func main() {
	cli.Execute()
}
