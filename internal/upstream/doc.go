// Package upstream finds the newest release of a package on its hosting provider.
//
// A Source talks to one provider (GitHub releases and tags, the PyPI JSON
// API). The Resolver owns the closed host registry: the host of a package's
// current download URL selects the Source, and adding a provider means adding
// one implementation and one registry entry.
package upstream
