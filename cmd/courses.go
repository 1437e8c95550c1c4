package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/coursefinder/internal/models"
	"github.com/desertthunder/coursefinder/internal/shared"
	"github.com/urfave/cli/v3"
)

// CoursesSearch searches the catalog and marks results that are already favorites.
func (r *Runner) CoursesSearch(ctx context.Context, cmd *cli.Command) error {
	query := strings.TrimSpace(cmd.StringArg("query"))
	if query == "" {
		return fmt.Errorf("%w: query", shared.ErrMissingArgument)
	}

	limit := r.config.UI.SearchLimit
	if cmd.IsSet("limit") {
		limit = int(cmd.Int("limit"))
	}

	a, err := r.open(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	r.logger.Debug("searching catalog", "query", query, "limit", limit)
	courses, err := a.catalog.Search(ctx, query, limit)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(courses, cmd.Bool("pretty"))
	}

	r.writePlainHeader(fmt.Sprintf("Results for %q (%d)", query, len(courses)))
	for i, c := range courses {
		star := " "
		if a.favorites.Contains(c.Key) {
			star = "★"
		}
		r.writePlain("%s %2d. %s\n", star, i+1, c.Title)
		r.writePlain("      %s • %s • %s\n", c.Authors(), c.Year(), c.Key)
	}
	return nil
}

// CoursesShow prints the details of one work.
func (r *Runner) CoursesShow(ctx context.Context, cmd *cli.Command) error {
	key := strings.TrimSpace(cmd.StringArg("key"))
	if key == "" {
		return fmt.Errorf("%w: key", shared.ErrMissingArgument)
	}

	a, err := r.open(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	details, err := a.catalog.Details(ctx, key)
	if err != nil {
		return fmt.Errorf("failed to fetch %s: %w", key, err)
	}

	if cmd.Bool("open") {
		page := strings.TrimRight(r.config.API.CatalogURL, "/") + details.Key
		if err := shared.OpenBrowser(page); err != nil {
			r.logger.Warn("could not open browser", "url", page, "error", err)
		}
	}

	if cmd.Bool("json") {
		return r.writeJSON(details, true)
	}

	title := details.Title
	if a.favorites.Contains(details.Key) {
		title += " ★"
	}
	r.writePlainHeader(title)
	r.writePlain("Key: %s\n", details.Key)
	if details.FirstPublishDate != "" {
		r.writePlain("First published: %s\n", details.FirstPublishDate)
	}
	r.writePlain("Cover: %s\n", models.CoverURL(r.config.API.CoversURL, details.CoverID(), models.CoverLarge))
	if len(details.Subjects) > 0 {
		r.writePlain("Subjects: %s\n", strings.Join(details.Subjects, ", "))
	}
	if details.Description != "" {
		r.writePlainln("%s", details.Description)
	}
	return nil
}
