// Package pkgbuild evaluates PKGBUILD files in-process with a POSIX/bash
// interpreter and reports the metadata lines the updater consumes.
package pkgbuild
