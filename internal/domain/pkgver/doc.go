// Package pkgver implements the lenient version value used across the updater.
//
// Upstream projects tag releases in many shapes ("v1.2", "release-1.2.3",
// "1.0rc1", "2.3.4.5"). Parse accepts all of them, normalizes the numeric part
// into a semantic version for ordering, and keeps the exact input text so it
// can be substituted back into package definitions unchanged.
package pkgver
