// Package store provides persistence for users, profiles and OAuth
// accounts behind narrow interfaces, so the sync engine and auditor never
// touch gorm directly.
package store
