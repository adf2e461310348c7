// Package database provides SQLite access for Farm Core.
//
// It wraps database/sql with WAL-mode configuration tuned for SQLite's
// single-writer model and an embedded migration runner. Migrations live in
// the migrations package at the repository root and are compiled into the
// binary via embed.FS.
package database
