package main

import (
	"context"

	"github.com/gnames/gn"
	"github.com/spf13/cobra"
)

func getSanitizeCmd() *cobra.Command {
	var (
		titlesOnly    bool
		abstractsOnly bool
	)

	cmd := &cobra.Command{
		Use:   "sanitize",
		Short: "Strip residual HTML from titles and abstracts",
		Long: `Strip residual HTML markup from paper titles and harvested
abstracts.

Harvesters sanitize text on ingest; this routine catches rows written
before the current sanitizer. Text is stripped of markup, entities are
decoded and whitespace is collapsed. Only rows that actually change are
written.

By default both titles and abstracts are processed.

Examples:
  oadb sanitize
  oadb sanitize --titles
  oadb sanitize --abstracts`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			cfg := getConfig()

			op, err := connectOperator(ctx)
			if err != nil {
				return err
			}
			defer op.Close()

			m := newMaintainer(op)

			doTitles := !abstractsOnly
			doAbstracts := !titlesOnly

			if doTitles {
				if _, err := m.SanitizeTitles(ctx, cfg); err != nil {
					gn.PrintErrorMessage(err)
					return err
				}
			}
			if doAbstracts {
				if _, err := m.SanitizeAbstracts(ctx, cfg); err != nil {
					gn.PrintErrorMessage(err)
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&titlesOnly, "titles", false,
		"sanitize paper titles only")
	cmd.Flags().BoolVar(&abstractsOnly, "abstracts", false,
		"sanitize harvested abstracts only")
	cmd.MarkFlagsMutuallyExclusive("titles", "abstracts")

	return cmd
}
