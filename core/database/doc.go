// Package database provides the GORM database connection and schema
// inspection helpers.
//
// Connect returns a *gorm.DB for the configured driver (MySQL in
// production, sqlite for tests and local debugging). Error translation is
// always enabled so duplicate-key inserts can be detected portably with
// errors.Is(err, gorm.ErrDuplicatedKey).
//
// The inspector reads raw column definitions for a table. It exists so the
// service can verify at startup that the identity and profile tables carry
// every column the mirrored field set expects, instead of failing inside a
// sync handler at runtime.
package database
