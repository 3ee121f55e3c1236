package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/simp-lee/epubtidy"
	"github.com/simp-lee/epubtidy/internal/config"
	"github.com/simp-lee/epubtidy/internal/version"
)

type rootOptions struct {
	cfgFile string
	quiet   bool
	verbose bool
}

func newRootCmd() *cobra.Command {
	var opts rootOptions

	cmd := &cobra.Command{
		Use:   "epubtidy [flags] <input.epub> <output.epub>",
		Short: "Merge split paragraphs and tidy spacing in ePub books",
		Long: `epubtidy rewrites the XHTML documents of an ePub book:

  - paragraphs split across several blocks are merged back together
  - spacing after non-punctuation characters is removed
  - serial dates such as 00.20160727 become 【2016-07-27】

Table of contents titles get the date rewrite only. Stylesheets, images and
excluded documents are copied unchanged. The input file is never modified.`,
		Args:         cobra.ExactArgs(2),
		Version:      version.GitRelease,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReformat(cmd, opts, args[0], args[1])
		},
	}

	flags := cmd.Flags()
	flags.StringSliceP("exclude", "e", nil, "item name or manifest id to copy unchanged (repeatable)")
	flags.StringSlice("block", []string{"p"}, "element name treated as a paragraph block (repeatable)")
	flags.StringVar(&opts.cfgFile, "config", "", "config file (default: ./epubtidy.yaml)")
	flags.BoolVarP(&opts.quiet, "quiet", "q", false, "do not print per-item progress")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")

	cmd.AddCommand(newVersionCmd())
	return cmd
}

func runReformat(cmd *cobra.Command, opts rootOptions, in, out string) error {
	cfg, err := config.Load(opts.cfgFile, cmd.Flags())
	if err != nil {
		return err
	}
	level, err := cfg.Level()
	if err != nil {
		return err
	}
	if opts.verbose {
		level = slog.LevelDebug
	}

	stderr := cmd.ErrOrStderr()
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	return epubtidy.Reformat(cmd.Context(), in, out, epubtidy.Options{
		Exclude:   cfg.Exclude,
		BlockTags: cfg.Blocks,
		Logger:    logger,
		Progress:  progressPrinter(stderr, opts.quiet),
	})
}

// progressPrinter prints one line per manifest item, passed-through items
// included.
func progressPrinter(w io.Writer, quiet bool) func(epubtidy.Progress) {
	if quiet {
		return nil
	}
	return func(p epubtidy.Progress) {
		fmt.Fprintf(w, "Processing: %s\n", p.Name)
	}
}
