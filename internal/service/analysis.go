package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dogsub/Open-Source-TermP/common/logger"
	"github.com/dogsub/Open-Source-TermP/internal/analyzer"
	"github.com/dogsub/Open-Source-TermP/internal/forge"
	"github.com/dogsub/Open-Source-TermP/internal/image"
	"github.com/dogsub/Open-Source-TermP/internal/model"
	"github.com/dogsub/Open-Source-TermP/internal/tags"
)

var (
	ErrInvalidRepository = errors.New("invalid repository")
	errNotConfigured     = errors.New("not configured")
)

// Options selects the steps of one analysis.
type Options struct {
	RunID      int64
	SkipReadme bool
	SkipTags   bool
	SkipImage  bool
	TraceID    string // carried to the worker when queued
}

type ReadmeGenerator interface {
	Generate(ctx context.Context, repoName string, files []forge.File) (string, error)
}

type TagPipeline interface {
	Run(ctx context.Context, readme string) (*tags.Outcome, error)
}

type ImageSelector interface {
	Select(ctx context.Context, repo forge.Repo, readme string) (string, error)
}

// ForgeResolver returns the forge client for a repository host.
type ForgeResolver func(repo forge.Repo) (forge.Forge, error)

// AnalysisDeps are the collaborators of an AnalysisService. A nil Readme or
// Tags makes that step fail with a "not configured" error.
type AnalysisDeps struct {
	Forges ForgeResolver
	Readme ReadmeGenerator
	Tags   TagPipeline
	Images func(f forge.Forge) ImageSelector
}

type AnalysisService interface {
	// Run resolves the repository and runs every requested step. A failing step
	// is recorded on the analysis and does not stop the others. The error is
	// non-nil only when the repository cannot be analysed at all.
	Run(ctx context.Context, repoURL string, opts Options) (*model.Analysis, error)
}

type analysisService struct {
	deps AnalysisDeps
}

func NewAnalysisService(deps AnalysisDeps) AnalysisService {
	if deps.Images == nil {
		deps.Images = func(f forge.Forge) ImageSelector { return image.NewSelector(f, nil) }
	}
	return &analysisService{deps: deps}
}

func (s *analysisService) Run(ctx context.Context, repoURL string, opts Options) (*model.Analysis, error) {
	repo, err := forge.ParseRepoURL(repoURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRepository, err)
	}
	f, err := s.deps.Forges(repo)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRepository, err)
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{
		RunID:     logger.Ptr(opts.RunID),
		Repo:      logger.Ptr(repo.FullName()),
		Component: "termp.service.analysis",
	})
	sc := logger.StartSpan(ctx, "analysis.run")
	defer sc.End()
	ctx = sc.Context()

	a := &model.Analysis{
		ID:         opts.RunID,
		RepoURL:    repo.URL,
		Owner:      repo.Owner,
		Name:       repo.Name,
		Status:     model.AnalysisStatusRunning,
		SkipReadme: opts.SkipReadme,
		SkipTags:   opts.SkipTags,
		SkipImage:  opts.SkipImage,
	}

	start := time.Now()
	slog.InfoContext(ctx, "analysis started",
		"skip_readme", opts.SkipReadme,
		"skip_tags", opts.SkipTags,
		"skip_image", opts.SkipImage)

	if _, err := f.DefaultBranch(ctx, repo); err != nil {
		if errors.Is(err, forge.ErrNotFound) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidRepository, err)
		}
		sc.RecordError(err)
		slog.ErrorContext(ctx, "resolving repository failed", "error", err)
		a.RecordStepError(model.StepFetch, err)
		return a, nil
	}

	var repoReadme string
	var readmeErr error
	if !opts.SkipTags || !opts.SkipImage {
		repoReadme, readmeErr = f.Readme(ctx, repo)
		if readmeErr != nil {
			readmeErr = fmt.Errorf("fetching readme: %w", readmeErr)
		}
	}

	var (
		generated string
		genErr    error
		outcome   *tags.Outcome
		tagsErr   error
		imageURL  string
		imageErr  error
	)

	// Steps write disjoint variables; StepErrors is filled after the join.
	var g errgroup.Group
	if !opts.SkipReadme {
		g.Go(func() error {
			generated, genErr = s.readmeStep(ctx, f, repo)
			return nil
		})
	}
	if !opts.SkipTags {
		g.Go(func() error {
			if readmeErr != nil {
				tagsErr = readmeErr
				return nil
			}
			outcome, tagsErr = s.tagsStep(ctx, repoReadme)
			return nil
		})
	}
	if !opts.SkipImage {
		g.Go(func() error {
			if readmeErr != nil {
				imageErr = readmeErr
				return nil
			}
			imageURL, imageErr = s.deps.Images(f).Select(ctx, repo, repoReadme)
			return nil
		})
	}
	_ = g.Wait()

	if !opts.SkipReadme {
		if genErr != nil {
			a.RecordStepError(model.StepReadme, genErr)
		} else {
			a.Readme = &generated
		}
	}
	if !opts.SkipTags {
		if tagsErr != nil {
			a.RecordStepError(model.StepTags, tagsErr)
		} else {
			applyTags(a, outcome)
		}
	}
	if !opts.SkipImage {
		if imageErr != nil {
			a.RecordStepError(model.StepImage, fmt.Errorf("selecting image: %w", imageErr))
		} else if imageURL != "" {
			a.ImageURL = &imageURL
		}
	}

	for step, msg := range a.StepErrors {
		slog.WarnContext(ctx, "analysis step failed", "step", step, "error", msg)
	}
	slog.InfoContext(ctx, "analysis finished",
		"tags", len(a.Tags),
		"has_readme", a.Readme != nil,
		"has_image", a.ImageURL != nil,
		"failed_steps", len(a.StepErrors),
		"duration_ms", time.Since(start).Milliseconds())

	return a, nil
}

func (s *analysisService) readmeStep(ctx context.Context, f forge.Forge, repo forge.Repo) (string, error) {
	if s.deps.Readme == nil {
		return "", fmt.Errorf("readme generator: %w", errNotConfigured)
	}
	files, err := f.Files(ctx, repo, analyzer.IsSourceFile)
	if err != nil {
		return "", fmt.Errorf("fetching files: %w", err)
	}
	slog.InfoContext(ctx, "fetched source files", "count", len(files))
	return s.deps.Readme.Generate(ctx, repo.FullName(), files)
}

func (s *analysisService) tagsStep(ctx context.Context, readme string) (*tags.Outcome, error) {
	if s.deps.Tags == nil {
		return nil, fmt.Errorf("tag pipeline: %w", errNotConfigured)
	}
	out, err := s.deps.Tags.Run(ctx, readme)
	if err != nil {
		return nil, fmt.Errorf("extracting tags: %w", err)
	}
	if len(out.Providers) == 0 && len(out.Failures) > 0 {
		// Total provider failure still yields a completed step with no tags.
		slog.WarnContext(ctx, "every tag provider failed, storing an empty tag set",
			"failures", len(out.Failures))
	}
	return out, nil
}

// applyTags stores the final tags, or the refiner text when it held no tag list.
func applyTags(a *model.Analysis, out *tags.Outcome) {
	a.ProviderTags = make(map[string][]string, len(out.Providers))
	for id, list := range out.Providers {
		a.ProviderTags[id] = list
	}

	final, err := out.FinalTags()
	if err != nil {
		raw := out.Refined.Content
		a.RawTags = &raw
		return
	}
	a.Tags = final
	if a.Tags == nil {
		a.Tags = []string{}
	}
}
