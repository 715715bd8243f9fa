// Package packager rebuilds updated packages with makepkg and regenerates
// their .SRCINFO so the published metadata matches the new PKGBUILD.
package packager
