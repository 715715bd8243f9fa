// Package common holds helpers shared by several services.
//
// It provides the HTTP client every upstream lookup and download goes
// through: one connection pool, one User-Agent, JSON decoding with a size
// bound, streaming downloads and a NetworkError type that classifies
// transport, status and decoding failures. It also provides the Runner that
// executes git and makepkg.
//
//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common
