// Package store persists the league standings table in SQLite
// (modernc.org/sqlite) or PostgreSQL (lib/pq). Every ingestion goes through
// Update, which loads the whole table, lets the caller mutate rows through
// Batch.GetOrCreate and upserts the touched rows in one transaction.
package store
