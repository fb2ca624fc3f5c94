package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/NikitaDmitryuk/telegram-fetch-bot/internal/app"
	"github.com/NikitaDmitryuk/telegram-fetch-bot/internal/core/domain"
	tmserrors "github.com/NikitaDmitryuk/telegram-fetch-bot/internal/core/errors"
	"github.com/NikitaDmitryuk/telegram-fetch-bot/internal/fetcher"
	"github.com/NikitaDmitryuk/telegram-fetch-bot/internal/media"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var (
	outputDir string
	quiet     bool
)

var fetchCmd = &cobra.Command{
	Use:   "fetch <url> [tier]",
	Short: "Fetch a link with the bot's size rules and save it to a directory",
	Long: `fetch runs the same bounded fetch the bot uses and copies the result into
--out. For video links the tier defaults to "best"; run "variants" to see the
ladder.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		stack := app.NewFetchStack(cfg)
		link, err := stack.Classifier.Classify(args[0])
		if err != nil {
			return err
		}

		req := fetcher.Request{Link: link}
		if link.Kind == domain.LinkExtractor {
			tier := domain.TierBest
			if len(args) == 2 {
				tier = domain.TierKey(args[1])
			}
			if !media.IsValidTier(tier) {
				return fmt.Errorf("unknown tier %q", tier)
			}
			resolved, err := stack.Resolver.Resolve(cmd.Context(), link)
			if err != nil {
				return err
			}
			variant, ok := resolved.Variant(tier)
			if !ok {
				return fmt.Errorf("tier %q is not offered for this link", tier)
			}
			req.Variant = &variant
			req.Title = resolved.Title
		}

		progress := newProgress(quiet)
		req.Progress = progress.Update
		result, err := stack.Fetcher.Fetch(cmd.Context(), req)
		progress.Finish()
		if err != nil {
			if diag := tmserrors.Diagnostic(err, 200); diag != "" {
				fmt.Fprintln(cmd.ErrOrStderr(), diag)
			}
			return err
		}
		defer result.Close()

		path, err := save(result, outputDir)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", path, humanize.Bytes(uint64(result.SizeInBytes)))
		return nil
	},
}

func init() {
	fetchCmd.Flags().StringVarP(&outputDir, "out", "o", ".", "directory to save the file into")
	fetchCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "do not show a progress bar")
}

// save copies the transient result into dir under its delivery filename.
func save(result *domain.TransferResult, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, result.Filename)
	out, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(out, result.Content); err != nil {
		out.Close()
		os.Remove(path)
		return "", err
	}
	return path, out.Close()
}
