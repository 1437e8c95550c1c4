package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/coursefinder/internal/formatter"
	"github.com/desertthunder/coursefinder/internal/models"
	"github.com/desertthunder/coursefinder/internal/shared"
	"github.com/urfave/cli/v3"
)

// FavoritesList prints the favorites in insertion order.
func (r *Runner) FavoritesList(ctx context.Context, cmd *cli.Command) error {
	a, err := r.open(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	items := a.favorites.List()
	if cmd.Bool("json") {
		return r.writeJSON(items, true)
	}

	if len(items) == 0 {
		return r.writePlain("No favorites yet\n")
	}
	r.writePlainHeader(fmt.Sprintf("Favorites (%d)", len(items)))
	for i, c := range items {
		r.writePlain("%2d. %s - %s (%s)\n", i+1, c.Title, c.PrimaryAuthor(), c.Year())
	}
	return nil
}

// FavoritesToggle adds or removes a course by key.
//
// New favorites are looked up in the catalog so the stored entry carries a title and cover.
func (r *Runner) FavoritesToggle(ctx context.Context, cmd *cli.Command) error {
	key := strings.TrimSpace(cmd.StringArg("key"))
	if key == "" {
		return fmt.Errorf("%w: key", shared.ErrMissingArgument)
	}

	a, err := r.open(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	course := models.Course{Key: key, Title: key}
	if !a.favorites.Contains(key) {
		details, err := a.catalog.Details(ctx, key)
		if err != nil {
			return fmt.Errorf("failed to look up %s: %w", key, err)
		}
		course = models.Course{Key: details.Key, Title: details.Title, CoverID: details.CoverID()}
	}

	added := a.favorites.Toggle(course)
	if err := a.favorites.Flush(ctx); err != nil {
		return err
	}

	if added {
		return r.writePlain("★ Added %s\n", course.Title)
	}
	return r.writePlain("☆ Removed %s\n", course.Key)
}

// FavoritesExport writes the favorites in one of the formatter's formats.
func (r *Runner) FavoritesExport(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	a, err := r.open(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	owner, ok := a.sessions.User(ctx)
	if !ok {
		owner = "guest"
	}
	export := &formatter.Export{
		Owner:     owner,
		Courses:   a.favorites.List(),
		CoversURL: r.config.API.CoversURL,
		CreatedAt: time.Now(),
	}

	if cmd.Bool("stdout") {
		return formatter.Write(r.output, export, format)
	}

	if format == formatter.FormatMarkdown {
		result, err := formatter.WriteMarkdownExport(ctx, export, cmd.String("output"), formatter.MarkdownOptions{
			DownloadCovers: cmd.Bool("covers"),
			HTTPClient:     r.httpClient,
			Warn:           func(msg string, kv ...any) { r.logger.Warn(msg, kv...) },
		})
		if err != nil {
			return err
		}
		r.logger.Info("exported favorites", "dir", result.Directory, "covers", result.Covers)
		return r.writePlain("✓ Exported %d favorites to %s\n", len(export.Courses), result.Directory)
	}

	path, err := formatter.WriteFileExport(export, format, cmd.String("output"))
	if err != nil {
		return err
	}
	r.logger.Info("exported favorites", "path", path, "format", format)
	return r.writePlain("✓ Exported %d favorites to %s\n", len(export.Courses), path)
}
