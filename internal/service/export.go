package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dogsub/Open-Source-TermP/internal/forge"
	"github.com/dogsub/Open-Source-TermP/internal/model"
	"github.com/dogsub/Open-Source-TermP/internal/store"
)

// Exported lists the files written for one analysis. Empty paths were not written.
type Exported struct {
	Dir        string
	ReadmePath string
	TagsPath   string
	ImagePath  string
}

// Export writes the results of a into its repository directory under out.
// Each file is written independently; the joined error reports every failure.
func Export(ctx context.Context, a *model.Analysis, out *store.OutputDir) (*Exported, error) {
	repoOut, err := out.ForRepo(forge.Repo{Owner: a.Owner, Name: a.Name})
	if err != nil {
		return nil, err
	}
	exp := &Exported{Dir: repoOut.Dir}

	var errs []error
	if a.Readme != nil {
		if exp.ReadmePath, err = repoOut.WriteReadme(*a.Readme); err != nil {
			errs = append(errs, err)
		}
	}

	if _, failed := a.StepErrors[model.StepTags]; !a.SkipTags && !failed && a.StepErrors[model.StepFetch] == "" {
		if exp.TagsPath, err = repoOut.WriteTags(a.Tags, a.RawTags); err != nil {
			errs = append(errs, err)
		}
	}

	if a.ImageURL != nil {
		if exp.ImagePath, err = repoOut.DownloadImage(ctx, *a.ImageURL); err != nil {
			slog.WarnContext(ctx, "image download failed", "url", *a.ImageURL, "error", err)
			errs = append(errs, err)
		}
	}

	if err := errors.Join(errs...); err != nil {
		return exp, fmt.Errorf("writing outputs: %w", err)
	}
	return exp, nil
}
