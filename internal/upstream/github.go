package upstream

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/oshokin/aur-autoupdater/internal/domain/filename"
	"github.com/oshokin/aur-autoupdater/internal/domain/pkgver"
	"github.com/oshokin/aur-autoupdater/internal/logger"
	"github.com/oshokin/aur-autoupdater/internal/service/common"
)

const (
	// githubPerPage is the largest page size the listing endpoints accept.
	githubPerPage = 100
	// githubMaxPages caps pagination so a huge project cannot stall a run.
	githubMaxPages = 3
	// githubAPIVersion pins the REST API version.
	githubAPIVersion = "2022-11-28"
	// githubArchiveURL is the tarball GitHub generates for every tag.
	githubArchiveURL = "https://github.com/%s/%s/archive/refs/tags/%s.tar.gz"
)

type (
	// GitHub finds new versions among the releases and tags of a repository.
	GitHub struct {
		state

		client       *common.Client
		baseURL      string
		token        string
		organization string
		repository   string
	}

	githubRelease struct {
		TagName string        `json:"tag_name"`
		Assets  []githubAsset `json:"assets"`
	}

	githubAsset struct {
		BrowserDownloadURL string `json:"browser_download_url"`
	}

	githubTag struct {
		Name string `json:"name"`
	}
)

// NewGitHub creates a GitHub source for a github.com download URL.
// The first two path segments name the organization and the repository.
func NewGitHub(downloadURL *url.URL, current pkgver.Version, deps Deps) (*GitHub, error) {
	segments := strings.Split(strings.TrimPrefix(downloadURL.Path, "/"), "/")
	if len(segments) < 2 || segments[0] == "" || segments[1] == "" {
		return nil, fmt.Errorf("%w: %q has no organization/repository", ErrMalformedURL, downloadURL.String())
	}

	baseURL := deps.GitHubBaseURL
	if baseURL == "" {
		baseURL = DefaultGitHubBaseURL
	}

	return &GitHub{
		state:        newState(current),
		client:       deps.Client,
		baseURL:      strings.TrimRight(baseURL, "/"),
		token:        deps.GitHubToken,
		organization: segments[0],
		repository:   segments[1],
	}, nil
}

func newGitHubSource(downloadURL *url.URL, current pkgver.Version, deps Deps) (Source, error) {
	source, err := NewGitHub(downloadURL, current, deps)
	if err != nil {
		return nil, err
	}

	return source, nil
}

// Name implements Source.
func (g *GitHub) Name() string {
	return "github"
}

// FetchLastVersion scans release assets for a file matching tmpl and falls
// back to tag archives when no asset matches.
func (g *GitHub) FetchLastVersion(ctx context.Context, tmpl filename.Template) error {
	if err := g.begin(); err != nil {
		return err
	}

	ctx = logger.WithFields(ctx, "organization", g.organization, "repository", g.repository)

	releases, err := fetchPages[githubRelease](ctx, g, g.endpoint("releases"))
	if err != nil {
		return fmt.Errorf("list releases: %w", err)
	}

	var best tracker

	for _, release := range releases {
		v, err := pkgver.Parse(release.TagName)
		if err != nil {
			logger.DebugKV(ctx, "Skipping release with unparsable tag", "tag", release.TagName)

			continue
		}

		for _, asset := range release.Assets {
			if tmpl.Matches(asset.BrowserDownloadURL, v) {
				best.offer(v, asset.BrowserDownloadURL)
			}
		}
	}

	if best.best != nil {
		g.resolve(best.best)

		return nil
	}

	logger.DebugKV(ctx, "No release asset matched, falling back to tags", "releases", len(releases))

	tags, err := fetchPages[githubTag](ctx, g, g.endpoint("tags"))
	if err != nil {
		return fmt.Errorf("list tags: %w", err)
	}

	for _, tag := range tags {
		v, err := pkgver.Parse(tag.Name)
		if err != nil {
			logger.DebugKV(ctx, "Skipping unparsable tag", "tag", tag.Name)

			continue
		}

		best.offer(v, g.archiveURL(tag.Name))
	}

	g.resolve(best.best)

	return nil
}

func (g *GitHub) endpoint(listing string) string {
	return fmt.Sprintf("%s/repos/%s/%s/%s?per_page=%d",
		g.baseURL, url.PathEscape(g.organization), url.PathEscape(g.repository), listing, githubPerPage)
}

func (g *GitHub) archiveURL(tag string) string {
	return fmt.Sprintf(githubArchiveURL, g.organization, g.repository, tag)
}

func (g *GitHub) requestOptions() []common.RequestOption {
	return []common.RequestOption{
		common.WithHeader("Accept", "application/vnd.github+json"),
		common.WithHeader("X-GitHub-Api-Version", githubAPIVersion),
		common.WithBearerToken(g.token),
	}
}

// fetchPages follows rel="next" links until the listing ends or githubMaxPages is reached.
func fetchPages[T any](ctx context.Context, g *GitHub, firstURL string) ([]T, error) {
	var all []T

	pageURL := firstURL

	for page := 0; page < githubMaxPages && pageURL != ""; page++ {
		var items []T

		headers, err := g.client.GetJSON(ctx, pageURL, &items, g.requestOptions()...)
		if err != nil {
			return nil, err
		}

		all = append(all, items...)
		pageURL = nextPageURL(headers.Get("Link"))
	}

	return all, nil
}

// nextPageURL extracts the rel="next" target of a Link header.
func nextPageURL(header string) string {
	for part := range strings.SplitSeq(header, ",") {
		segments := strings.Split(strings.TrimSpace(part), ";")
		if len(segments) < 2 {
			continue
		}

		target := strings.TrimSpace(segments[0])
		if !strings.HasPrefix(target, "<") || !strings.HasSuffix(target, ">") {
			continue
		}

		for _, param := range segments[1:] {
			if strings.TrimSpace(param) == `rel="next"` {
				return strings.TrimSuffix(strings.TrimPrefix(target, "<"), ">")
			}
		}
	}

	return ""
}
