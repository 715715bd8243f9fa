// Package aur manages local git clones of AUR package repositories.
package aur
