package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/webslide/webslide/internal/deck"
	"github.com/webslide/webslide/models"
)

func main() {
	app := &cli.App{
		Name:  "webslide",
		Usage: "turn a web page into a narrated slide deck",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Value: "webslide.yaml",
				Usage: "path to the config file (missing file falls back to defaults)",
			},
			&cli.BoolFlag{
				Name:  "quiet",
				Usage: "only log errors",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "build",
				Usage:  "fetch a page and build its slide deck",
				Action: deck.BuildAction,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "url", Usage: "page URL to build a deck for"},
					&cli.StringFlag{Name: "html-file", Usage: "read page HTML from a local file instead of fetching"},
					&cli.StringFlag{Name: "tone", Value: models.ToneDefault, Usage: "narration tone (default, kid-friendly, skeptical, optimistic, expert)"},
					&cli.StringFlag{Name: "lang", Usage: "target language code, e.g. es or zh"},
					&cli.StringFlag{Name: "model", Usage: "model name override"},
					&cli.BoolFlag{Name: "force-fetch", Usage: "bypass the html cache"},
					&cli.IntFlag{Name: "timeout", Usage: "seconds before a placeholder deck is shown"},
				},
			},
			{
				Name:   "rewrite",
				Usage:  "rewrite the last deck for a page in a different tone",
				Action: deck.RewriteAction,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "url", Usage: "page URL of a previously built deck", Required: true},
					&cli.StringFlag{Name: "tone", Value: models.ToneDefault, Usage: "narration tone to rewrite into"},
					&cli.StringFlag{Name: "lang", Usage: "target language if a rebuild is needed"},
					&cli.StringFlag{Name: "model", Usage: "model name override"},
				},
			},
			{
				Name:   "translate",
				Usage:  "translate the last deck for a page in place",
				Action: deck.TranslateAction,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "url", Usage: "page URL of a previously built deck", Required: true},
					&cli.StringFlag{Name: "lang", Usage: "target language code", Required: true},
					&cli.StringFlag{Name: "from", Usage: "source language code (detected when omitted)"},
					&cli.StringFlag{Name: "tone", Usage: "narration tone if a rebuild is needed"},
					&cli.StringFlag{Name: "model", Usage: "model name override"},
				},
			},
			{
				Name:  "cache",
				Usage: "manage the deck cache",
				Subcommands: []*cli.Command{
					{
						Name:   "clear",
						Usage:  "drop all cached decks and mirrors",
						Action: deck.CacheClearAction,
					},
					{
						Name:   "stats",
						Usage:  "show cached deck and mirror counts",
						Action: deck.CacheStatsAction,
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
