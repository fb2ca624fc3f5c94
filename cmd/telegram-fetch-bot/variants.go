package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/NikitaDmitryuk/telegram-fetch-bot/internal/app"
	"github.com/NikitaDmitryuk/telegram-fetch-bot/internal/core/domain"
	"github.com/NikitaDmitryuk/telegram-fetch-bot/internal/handlers/ui"
	"github.com/NikitaDmitryuk/telegram-fetch-bot/internal/media"
	"github.com/spf13/cobra"
)

var variantsCmd = &cobra.Command{
	Use:   "variants <url>",
	Short: "Print the quality ladder offered for a video link",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		stack := app.NewFetchStack(cfg)
		link, err := stack.Classifier.Classify(args[0])
		if err != nil {
			return err
		}
		if link.Kind != domain.LinkExtractor {
			return fmt.Errorf("%s is a direct link; use fetch", link.URL)
		}

		resolved, err := stack.Resolver.Resolve(cmd.Context(), link)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if resolved.Title != "" {
			fmt.Fprintln(out, resolved.Title)
		}
		if d := ui.FormatDuration(resolved.DurationSeconds); d != "" {
			fmt.Fprintln(out, "Duration:", d)
		}
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "TIER\tLABEL\tSIZE\tFITS\tSELECTOR")
		for _, v := range resolved.Variants {
			fits := "yes"
			if v.EstimatedBytes > stack.Fetcher.SizeCeiling() {
				fits = "no"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", v.Tier, media.TierLabel(v.Tier), ui.SizeLabel(v), fits, v.FormatSelector)
		}
		return w.Flush()
	},
}
