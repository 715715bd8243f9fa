package upstream

import (
	"context"
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/oshokin/aur-autoupdater/internal/domain/filename"
	"github.com/oshokin/aur-autoupdater/internal/domain/pkgver"
	"github.com/oshokin/aur-autoupdater/internal/logger"
	"github.com/oshokin/aur-autoupdater/internal/service/common"
)

const (
	// GitHubHost serves GitHub release assets and tag archives.
	GitHubHost = "github.com"
	// PyPIHost serves PyPI distribution files.
	PyPIHost = "files.pythonhosted.org"

	// DefaultGitHubBaseURL is the public GitHub REST API.
	DefaultGitHubBaseURL = "https://api.github.com"
	// DefaultPyPIBaseURL is the public PyPI JSON API.
	DefaultPyPIBaseURL = "https://pypi.org/pypi/"
)

type (
	// Deps are the shared collaborators handed to every Factory.
	Deps struct {
		// Client performs every HTTP request.
		Client *common.Client
		// GitHubBaseURL is the GitHub REST API root.
		GitHubBaseURL string
		// GitHubToken authenticates GitHub API requests when set.
		GitHubToken string
		// PyPIBaseURL is the PyPI JSON API root.
		PyPIBaseURL string
	}

	// Factory builds the Source for a download URL of its host.
	Factory func(downloadURL *url.URL, current pkgver.Version, deps Deps) (Source, error)

	// Resolver picks the Source responsible for a download URL.
	Resolver struct {
		deps     Deps
		registry map[string]Factory
	}

	// ResolverOption configures a Resolver during construction.
	ResolverOption func(*Resolver)
)

// WithGitHubBaseURL overrides the GitHub API root, primarily for test servers.
func WithGitHubBaseURL(base string) ResolverOption {
	return func(r *Resolver) {
		r.deps.GitHubBaseURL = strings.TrimRight(base, "/")
	}
}

// WithGitHubToken authenticates GitHub API requests.
// Authenticated requests have a higher rate limit (5000/hour vs 60/hour).
func WithGitHubToken(token string) ResolverOption {
	return func(r *Resolver) {
		r.deps.GitHubToken = token
	}
}

// WithPyPIBaseURL overrides the PyPI JSON API root.
func WithPyPIBaseURL(base string) ResolverOption {
	return func(r *Resolver) {
		r.deps.PyPIBaseURL = base
	}
}

// WithSource registers factory for host, replacing any existing entry.
func WithSource(host string, factory Factory) ResolverOption {
	return func(r *Resolver) {
		r.registry[strings.ToLower(host)] = factory
	}
}

// NewResolver creates a Resolver with the GitHub and PyPI sources registered.
func NewResolver(client *common.Client, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		deps: Deps{
			Client:        client,
			GitHubBaseURL: DefaultGitHubBaseURL,
			PyPIBaseURL:   DefaultPyPIBaseURL,
		},
		registry: map[string]Factory{
			GitHubHost: newGitHubSource,
			PyPIHost:   newPyPISource,
		},
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Hosts lists the registered hosts in lexical order.
func (r *Resolver) Hosts() []string {
	hosts := make([]string, 0, len(r.registry))
	for host := range r.registry {
		hosts = append(hosts, host)
	}

	slices.Sort(hosts)

	return hosts
}

// Resolve returns a fresh Source for downloadURL.
func (r *Resolver) Resolve(downloadURL string, current pkgver.Version) (Source, error) {
	parsed, err := url.Parse(downloadURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrMalformedURL, downloadURL, err)
	}

	if parsed.Host == "" {
		return nil, fmt.Errorf("%w: %q has no host", ErrMalformedURL, downloadURL)
	}

	host := strings.ToLower(parsed.Hostname())

	factory, ok := r.registry[host]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedHost, host)
	}

	source, err := factory(parsed, current, r.deps)
	if err != nil {
		return nil, fmt.Errorf("create %s source: %w", host, err)
	}

	return source, nil
}

// Check resolves the Source for downloadURL and fetches its last version.
func (r *Resolver) Check(
	ctx context.Context,
	downloadURL string,
	current pkgver.Version,
	tmpl filename.Template,
) (Source, error) {
	source, err := r.Resolve(downloadURL, current)
	if err != nil {
		return nil, err
	}

	ctx = logger.WithKV(ctx, "source", source.Name())

	logger.DebugKV(ctx, "Fetching last version", "current", current.Original(), "template", tmpl.String())

	if err = source.FetchLastVersion(ctx, tmpl); err != nil {
		return nil, fmt.Errorf("fetch last %s version: %w", source.Name(), err)
	}

	if remote, ok := source.RemoteVersion(); ok {
		downloadURL, _ := source.DownloadURL()
		logger.DebugKV(ctx, "Found remote version", "remote", remote.Original(), "url", downloadURL)
	}

	return source, nil
}
