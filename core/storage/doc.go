// Package storage provides the object storage client used for profile
// avatars.
//
// The Client interface wraps the subset of Minio operations the profile
// feature needs, so tests can substitute the mocks package and the rest of
// the code never touches the concrete SDK type.
package storage
