// Package aur reads package listings from the AUR web interface.
package aur
