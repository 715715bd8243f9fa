// Package updater decides whether a package is behind its upstream and
// rewrites its PKGBUILD when it is.
//
// A Pipeline turns evaluated build metadata into a Result: it derives the
// artifact file name template, asks the upstream resolver for the newest
// release, hashes the new artifact and substitutes version and checksum in the
// package definition. A Service drives the pipeline for one package or a
// batch, wrapping it with the git workspace, the build and the publication.
package updater
