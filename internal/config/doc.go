// Package config defines the settings used by aur-autoupdater and provides
// helpers to load, validate and save them in YAML format.
//
// Every field has a default, so running without a settings file talks to the
// public GitHub, PyPI and AUR endpoints and clones into the user cache directory.
package config
