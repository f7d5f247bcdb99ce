package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"homesite/internal/client"
	"homesite/internal/models"
)

func newApp(cmd *cli.Command) (*client.App, error) {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	store, err := client.NewLocalStore(cmd.String("state-dir"), logger)
	if err != nil {
		return nil, fmt.Errorf("open state dir: %w", err)
	}

	mode := client.ModeConnected
	var api *client.APIClient
	if cmd.Bool("local-only") {
		mode = client.ModeLocalOnly
	} else {
		api = client.NewAPIClient(cmd.String("server"), cmd.String("token"))
	}

	return client.NewApp(store, api, mode, logger), nil
}

func collectionArg(cmd *cli.Command) (models.Collection, error) {
	return models.ParseCollection(cmd.Args().Get(0))
}

func syncAction(ctx context.Context, cmd *cli.Command) error {
	app, err := newApp(cmd)
	if err != nil {
		return err
	}
	for _, col := range models.Collections() {
		if err := app.LoadCollection(ctx, col); err != nil {
			return err
		}
	}
	state := app.State()
	fmt.Printf("synced: %d blogs, %d notes\n", len(state.Blogs), len(state.Notes))
	return nil
}

func uploadAction(ctx context.Context, cmd *cli.Command) error {
	col, err := collectionArg(cmd)
	if err != nil {
		return err
	}
	path := cmd.Args().Get(1)
	if path == "" {
		return fmt.Errorf("usage: upload <blog|note> <file.md> [--tag t ...]")
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	app, err := newApp(cmd)
	if err != nil {
		return err
	}
	if err := app.LoadCollection(ctx, col); err != nil {
		return err
	}

	// Tags go through the same collect-then-confirm flow the UI uses.
	modal := client.NewTagModal()
	if err := modal.Open(filepath.Base(path), content); err != nil {
		return err
	}
	for _, tag := range cmd.StringSlice("tag") {
		if err := modal.AddTag(tag); err != nil {
			return err
		}
	}
	filename, fileContent, tags, err := modal.Confirm()
	if err != nil {
		return err
	}

	doc, err := app.ProcessUpload(ctx, col, filename, fileContent, tags)
	if err != nil {
		return err
	}
	fmt.Printf("uploaded %q (%s) tags=%v\n", doc.Title, doc.Date, doc.Tags)
	return nil
}

func listAction(ctx context.Context, cmd *cli.Command) error {
	col, err := collectionArg(cmd)
	if err != nil {
		return err
	}
	app, err := newApp(cmd)
	if err != nil {
		return err
	}
	if err := app.LoadCollection(ctx, col); err != nil {
		return err
	}
	if tag := cmd.String("filter-tag"); tag != "" {
		app.FilterByTag(tag)
	}

	view := app.Render()
	docs := view.Blogs
	if col == models.CollectionNote {
		docs = view.Notes
	}
	for _, doc := range docs {
		line := fmt.Sprintf("%s  %s", doc.Date, doc.Title)
		if doc.ReadTime != "" {
			line += "  (" + doc.ReadTime + ")"
		}
		if len(doc.Tags) > 0 {
			line += fmt.Sprintf("  %v", doc.Tags)
		}
		fmt.Println(line)
	}
	if len(view.Tags) > 0 {
		fmt.Printf("tags: %v\n", view.Tags)
	}
	return nil
}

func showAction(ctx context.Context, cmd *cli.Command) error {
	col, err := collectionArg(cmd)
	if err != nil {
		return err
	}
	title := cmd.Args().Get(1)
	if title == "" {
		return fmt.Errorf("usage: show <blog|note> <title>")
	}

	app, err := newApp(cmd)
	if err != nil {
		return err
	}
	if err := app.LoadCollection(ctx, col); err != nil {
		return err
	}

	state := app.State()
	docs := state.Blogs
	if col == models.CollectionNote {
		docs = state.Notes
	}
	doc, ok := docs[title]
	if !ok {
		return fmt.Errorf("no %s titled %q", col, title)
	}

	html, err := client.RenderHTML(doc)
	if err != nil {
		return err
	}
	fmt.Println(html)
	return nil
}

func main() {
	common := []cli.Flag{
		&cli.StringFlag{
			Name:    "server",
			Usage:   "Base URL of the homesite server",
			Value:   "http://localhost:3001",
			Sources: cli.EnvVars("HOMESITE_SERVER"),
		},
		&cli.StringFlag{
			Name:    "token",
			Usage:   "Bearer token for upload endpoints",
			Sources: cli.EnvVars("HOMESITE_AUTH_TOKEN"),
		},
		&cli.StringFlag{
			Name:    "state-dir",
			Usage:   "Directory for the local document cache",
			Value:   defaultStateDir(),
			Sources: cli.EnvVars("HOMESITE_STATE_DIR"),
		},
		&cli.BoolFlag{
			Name:  "local-only",
			Usage: "Never touch the network; local cache is authoritative",
		},
	}

	cmd := &cli.Command{
		Name:  "homesite-client",
		Usage: "Offline-first client for the homesite content API",
		Commands: []*cli.Command{
			{
				Name:      "sync",
				Usage:     "Merge the server listings into the local cache",
				Flags:     common,
				Action:    syncAction,
				ArgsUsage: " ",
			},
			{
				Name:      "upload",
				Usage:     "Publish a Markdown file to a collection",
				Flags:     append([]cli.Flag{&cli.StringSliceFlag{Name: "tag", Usage: "Tag to attach (repeatable)"}}, common...),
				Action:    uploadAction,
				ArgsUsage: "<blog|note> <file.md>",
			},
			{
				Name:      "list",
				Usage:     "List a collection, optionally filtered by tag",
				Flags:     append([]cli.Flag{&cli.StringFlag{Name: "filter-tag", Usage: "Only show documents carrying this tag"}}, common...),
				Action:    listAction,
				ArgsUsage: "<blog|note>",
			},
			{
				Name:      "show",
				Usage:     "Render one document as HTML",
				Flags:     common,
				Action:    showAction,
				ArgsUsage: "<blog|note> <title>",
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func defaultStateDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".homesite"
	}
	return filepath.Join(home, ".homesite")
}
