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

// pypiProjectSegment is the index of the project name in
// /packages/source/<letter>/<project>/<file> download paths.
const pypiProjectSegment = 4

type (
	// PyPI finds new versions in the JSON release index of a project.
	PyPI struct {
		state

		client  *common.Client
		baseURL *url.URL
		project string
	}

	pypiProject struct {
		Releases map[string][]pypiFile `json:"releases"`
	}

	pypiFile struct {
		Filename string `json:"filename"`
		URL      string `json:"url"`
	}
)

// NewPyPI creates a PyPI source for a files.pythonhosted.org download URL.
func NewPyPI(downloadURL *url.URL, current pkgver.Version, deps Deps) (*PyPI, error) {
	segments := strings.Split(downloadURL.Path, "/")
	if len(segments) <= pypiProjectSegment || segments[pypiProjectSegment] == "" {
		return nil, fmt.Errorf("%w: %q", ErrMissingProjectName, downloadURL.String())
	}

	rawBase := deps.PyPIBaseURL
	if rawBase == "" {
		rawBase = DefaultPyPIBaseURL
	}

	baseURL, err := url.Parse(rawBase)
	if err != nil {
		return nil, fmt.Errorf("parse pypi base url: %w", err)
	}

	return &PyPI{
		state:   newState(current),
		client:  deps.Client,
		baseURL: baseURL,
		project: segments[pypiProjectSegment],
	}, nil
}

func newPyPISource(downloadURL *url.URL, current pkgver.Version, deps Deps) (Source, error) {
	source, err := NewPyPI(downloadURL, current, deps)
	if err != nil {
		return nil, err
	}

	return source, nil
}

// Name implements Source.
func (p *PyPI) Name() string {
	return "pypi"
}

// Project returns the project name taken from the download URL.
func (p *PyPI) Project() string {
	return p.project
}

// FetchLastVersion selects the newest stable release and the file whose
// name equals tmpl rendered for it. A release without such a file is still
// reported, with an empty download URL.
func (p *PyPI) FetchLastVersion(ctx context.Context, tmpl filename.Template) error {
	if err := p.begin(); err != nil {
		return err
	}

	ctx = logger.WithKV(ctx, "project", p.project)

	var project pypiProject

	endpoint := p.baseURL.JoinPath(p.project, "json").String()
	if _, err := p.client.GetJSON(ctx, endpoint, &project); err != nil {
		return fmt.Errorf("get project index: %w", err)
	}

	winner, ok := latestStable(ctx, project.Releases)
	if !ok {
		logger.Debug(ctx, "No stable release found")

		return nil
	}

	expected := tmpl.RenderFrom(p.current, winner.version)
	candidate := &Candidate{Version: winner.version}

	for _, file := range project.Releases[winner.key] {
		if file.Filename == expected {
			candidate.URL = file.URL

			break
		}
	}

	if candidate.URL == "" {
		logger.DebugKV(ctx, "No release file matched", "expected", expected, "version", winner.key)
	}

	p.resolve(candidate)

	return nil
}

type pypiRelease struct {
	key     string
	version pkgver.Version
}

// latestStable returns the greatest release without a pre-release component.
// Keys are visited in lexical order so equal versions resolve to the smallest key.
func latestStable(ctx context.Context, releases map[string][]pypiFile) (pypiRelease, bool) {
	keys := make([]string, 0, len(releases))
	for key := range releases {
		keys = append(keys, key)
	}

	slices.Sort(keys)

	var (
		best  pypiRelease
		found bool
	)

	for _, key := range keys {
		v, err := pkgver.Parse(key)
		if err != nil {
			logger.DebugKV(ctx, "Skipping unparsable release", "release", key)

			continue
		}

		if v.IsPrerelease() {
			continue
		}

		if !found || v.GreaterThan(best.version) {
			best = pypiRelease{key: key, version: v}
			found = true
		}
	}

	return best, found
}
