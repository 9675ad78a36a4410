// Package profile keeps each user's denormalized profile projection in step
// with the canonical identity record.
//
// The identity record (users) is the source of truth for the mirrored
// fields; the projection (user_profiles) additionally carries an extended
// subset that only profile edits touch. Identity mutations publish events
// after commit, the sync engine applies them asynchronously, and the auditor
// finds and classifies anything that still drifted.
package profile
