package cmd

import (
	"context"
	"fmt"

	apiaur "github.com/oshokin/aur-autoupdater/internal/api/aur"
	"github.com/oshokin/aur-autoupdater/internal/logger"
	"github.com/oshokin/aur-autoupdater/internal/pkgbuild"
	repoaur "github.com/oshokin/aur-autoupdater/internal/repository/aur"
	"github.com/oshokin/aur-autoupdater/internal/service/common"
	"github.com/oshokin/aur-autoupdater/internal/service/packager"
	"github.com/oshokin/aur-autoupdater/internal/service/updater"
	"github.com/oshokin/aur-autoupdater/internal/upstream"
)

// application holds the collaborators built once per process.
type application struct {
	lister  *apiaur.Client
	service *updater.Service
}

// newApplication loads the configuration and wires every service around one HTTP client.
func newApplication(ctx context.Context) (*application, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	client := common.New(
		common.WithUserAgent(cfg.UserAgent),
		common.WithTimeout(cfg.Timeout),
		common.WithMaxResponseBytes(cfg.MaxResponseBytes),
	)

	resolver := upstream.NewResolver(client,
		upstream.WithGitHubBaseURL(cfg.GitHubAPIURL),
		upstream.WithGitHubToken(cfg.Token()),
		upstream.WithPyPIBaseURL(cfg.PyPIURL),
	)

	var evaluatorOptions []pkgbuild.Option

	if cfg.HelperScript != "" {
		helper, err := pkgbuild.LoadHelperScript(cfg.HelperScript)
		if err != nil {
			return nil, err
		}

		evaluatorOptions = append(evaluatorOptions, helper)
	}

	evaluator, err := pkgbuild.New(evaluatorOptions...)
	if err != nil {
		return nil, fmt.Errorf("create PKGBUILD evaluator: %w", err)
	}

	runner := common.ExecRunner{}
	lister := apiaur.NewClient(client, cfg.AURURL)

	service := updater.NewService(
		updater.NewPipeline(resolver, updater.NewHasher(client)),
		updater.Dependencies{
			Locate: func(name string) updater.Package {
				return updater.Package{
					Name:       name,
					Repository: cfg.RepositoryFor(name),
					Directory:  cfg.CloneDirectory(name),
				}
			},
			Workspace: repoaur.NewWorkspace(runner, cfg.Branch),
			Evaluator: evaluator,
			Builder:   packager.NewBuilder(runner, cfg.Build),
			Lister:    lister,
		},
	)

	logger.DebugKV(ctx, "Application ready",
		"cache_dir", cfg.CacheDir,
		"hosts", resolver.Hosts(),
		"github_token", cfg.Token() != "",
	)

	return &application{
		lister:  lister,
		service: service,
	}, nil
}
