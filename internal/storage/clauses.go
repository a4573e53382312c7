package storage

import "gorm.io/gorm/clause"

// lockForUpdate acquires a row lock for the duration of the transaction.
func lockForUpdate() clause.Locking {
	return clause.Locking{Strength: "UPDATE"}
}

// onConflictDoNothing suppresses unique-violation errors on insert, used for
// idempotent rows keyed by a natural unique index.
func onConflictDoNothing() clause.OnConflict {
	return clause.OnConflict{DoNothing: true}
}
