package cmd

import (
	"github.com/wtsi-hgi/mco-ghm/tables"
)

// loadTables loads every path given into a single TableSet, logging any
// build warnings (spec §7: unknown table kinds are warnings, never errors)
// and dying on structural failure.
func loadTables(paths []string) *tables.TableSet {
	if len(paths) == 0 {
		die("you must supply one or more table file paths")
	}

	set, err := tables.LoadFiles(paths...)
	if err != nil {
		die("failed to load tables: %s", err)
	}

	for _, w := range set.Warnings {
		warn("%s", w)
	}

	return set
}
