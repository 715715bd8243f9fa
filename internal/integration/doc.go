// Package integration runs the update pipeline end to end against a local
// bare git repository and an HTTP test server standing in for GitHub.
package integration
