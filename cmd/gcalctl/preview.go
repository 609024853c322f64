package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"gcalctl/internal/rrule"
)

func newPreviewCmd(a *app) *cobra.Command {
	var (
		f     eventFlags
		count int
	)
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Show upcoming occurrences of a recurrence rule without contacting the calendar",
		Example: `  gcalctl preview --start 2024-06-06T14:00 --rrule "FREQ=WEEKLY;BYDAY=TH" -n 5`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if f.rule == "" {
				return fmt.Errorf("--rrule is required")
			}
			if f.title == "" {
				f.title = "(preview)"
			}
			en, err := f.entry(a.loc)
			if err != nil {
				return err
			}
			if err := en.Rule.Validate(); err != nil {
				return err
			}

			res, err := rrule.Expand(en.Event, en.Rule, rrule.ExpandConfig{
				DisplayLocation: a.loc,
				MaxOccurrences:  count,
			})
			if err != nil {
				return err
			}

			if a.format() == "json" {
				return writeJSON(a.out, res.Occurrences)
			}
			fmt.Fprintln(a.out, en.Rule.Describe())
			for _, occ := range res.Occurrences {
				fmt.Fprintln(a.out, formatOccurrence(occ))
			}
			if res.Truncated {
				fmt.Fprintf(a.out, "... (first %d shown)\n", count)
			}
			return nil
		},
	}
	f.register(cmd.Flags())
	cmd.Flags().IntVarP(&count, "count", "n", 10, "number of occurrences to show")
	return cmd
}
