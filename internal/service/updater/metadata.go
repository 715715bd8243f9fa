package updater

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/oshokin/aur-autoupdater/internal/domain/pkgver"
)

const (
	// PKGBUILDFilename is the package definition inside a clone.
	PKGBUILDFilename = "PKGBUILD"

	keyVersion  = "pkgver"
	keySource   = "source"
	keyChecksum = "sha256sums"
)

var (
	// ErrUnknownKey is returned when build metadata carries an unexpected key.
	ErrUnknownKey = errors.New("unknown metadata key")
	// ErrMissingField is returned when build metadata lacks the version or the source.
	ErrMissingField = errors.New("missing metadata field")
)

// Package locates one AUR package on disk and on the remote.
type Package struct {
	// Name is the AUR package name.
	Name string
	// Repository is the git clone URL.
	Repository string
	// Directory is the local clone.
	Directory string
}

// PKGBUILD returns the path of the package definition.
func (p Package) PKGBUILD() string {
	return filepath.Join(p.Directory, PKGBUILDFilename)
}

// Metadata is what the PKGBUILD evaluation reports about the current release.
type Metadata struct {
	// Version is the current pkgver.
	Version pkgver.Version
	// Source is the current download URL, without any "name::" prefix.
	Source string
	// Checksum is the current sha256 of Source. It may be empty.
	Checksum string
}

// ParseMetadata reads key=value lines; the value is everything after the first "=".
func ParseMetadata(lines []string) (*Metadata, error) {
	var (
		meta       Metadata
		hasVersion bool
	)

	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}

		key, value, _ := strings.Cut(line, "=")
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		switch key {
		case keyVersion:
			v, err := pkgver.Parse(value)
			if err != nil {
				return nil, fmt.Errorf("parse %s: %w", keyVersion, err)
			}

			meta.Version = v
			hasVersion = true
		case keySource:
			meta.Source = value
		case keyChecksum:
			meta.Checksum = value
		default:
			return nil, fmt.Errorf("%w: %q", ErrUnknownKey, key)
		}
	}

	if !hasVersion {
		return nil, fmt.Errorf("%w: %s", ErrMissingField, keyVersion)
	}

	if meta.Source == "" {
		return nil, fmt.Errorf("%w: %s", ErrMissingField, keySource)
	}

	return &meta, nil
}
