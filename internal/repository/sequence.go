package repository

import "gorm.io/gorm"

// lockSequence serializes "read max, write next" number allocation by
// taking a transaction-scoped postgres advisory lock on the given key.
// The error is ignored; non-postgres test databases serialize writers
// themselves.
func lockSequence(db *gorm.DB, key string) {
	db.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", key)
}
