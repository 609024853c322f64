package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"gcalctl/internal/ics"
	appLog "gcalctl/internal/log"
	"gcalctl/internal/model"
	"gcalctl/internal/timerange"
)

func periodArg(args []string) string {
	if len(args) == 0 {
		return "d"
	}
	return args[0]
}

func (a *app) list(ctx context.Context, token string) ([]model.Entry, error) {
	r, err := timerange.For(token, a.now())
	if err != nil {
		return nil, err
	}
	return a.gateway().List(ctx, r)
}

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list [d|w|m]",
		Short: "List events of the current day, week (Monday to Sunday) or month",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := a.list(cmd.Context(), periodArg(args))
			if err != nil {
				return err
			}
			return a.renderList(entries)
		},
	}
}

func newGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get EVENT_ID",
		Short: "Show one event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			en, err := a.gateway().Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.renderOne(en)
		},
	}
}

func newCreateCmd(a *app) *cobra.Command {
	var (
		f       eventFlags
		fromICS string
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an event, optionally recurring",
		Example: `  gcalctl create -t "Offsite" --start 2024-06-09
  gcalctl create -t "Weekly Team Meeting" --start 2024-06-06T14:00 --rrule "FREQ=WEEKLY;BYDAY=TH"
  gcalctl create --from-ics invite.ics`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var entries []model.Entry
			if fromICS != "" {
				var err error
				if entries, err = a.loadICS(cmd.Context(), fromICS); err != nil {
					return err
				}
			} else {
				en, err := f.entry(a.loc)
				if err != nil {
					return err
				}
				entries = []model.Entry{en}
			}

			g := a.gateway()
			for _, en := range entries {
				created, err := g.Create(cmd.Context(), en)
				if err != nil {
					return err
				}
				fmt.Fprintf(a.out, "Created %s\n", created.ID)
				if created.Link != "" {
					fmt.Fprintf(a.out, "  %s\n", created.Link)
				}
			}
			return nil
		},
	}
	f.register(cmd.Flags())
	cmd.Flags().StringVar(&fromICS, "from-ics", "", "create every VEVENT of an iCalendar file or URL")
	cmd.MarkFlagsMutuallyExclusive("from-ics", "title")
	return cmd
}

func newUpdateCmd(a *app) *cobra.Command {
	var (
		f       eventFlags
		fromICS string
	)
	cmd := &cobra.Command{
		Use:   "update EVENT_ID",
		Short: "Replace an event with the given fields",
		Long: `update reads the event, overwrites the fields given as flags (or takes every
field from the first VEVENT of --from-ics) and writes the whole event back.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g := a.gateway()
			var en model.Entry
			if fromICS != "" {
				entries, err := a.loadICS(cmd.Context(), fromICS)
				if err != nil {
					return err
				}
				en = entries[0]
			} else {
				var err error
				if en, err = g.Get(cmd.Context(), args[0]); err != nil {
					return err
				}
				if err := f.apply(cmd, &en, a.loc); err != nil {
					return err
				}
			}
			en.ID = args[0]

			updated, err := g.Update(cmd.Context(), en)
			if err != nil {
				return err
			}
			return a.renderOne(updated)
		},
	}
	f.register(cmd.Flags())
	cmd.Flags().StringVar(&fromICS, "from-ics", "", "take the new event from an iCalendar file or URL")
	return cmd
}

func (a *app) loadICS(ctx context.Context, location string) ([]model.Entry, error) {
	body, err := a.fetcher.Load(ctx, location)
	if err != nil {
		return nil, err
	}
	entries, err := ics.ParseEntries(body)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, errors.New("no usable VEVENT in " + location)
	}
	appLog.Debug("loaded entries from ics", "location", location, "count", len(entries))
	return entries, nil
}

func newAttendeesCmd(a *app) *cobra.Command {
	var add, remove []string
	cmd := &cobra.Command{
		Use:   "attendees EVENT_ID",
		Short: "Add or remove attendees without touching the rest of the event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := a.gateway().PatchAttendees(cmd.Context(), args[0], add, remove)
			if err != nil {
				return err
			}
			if a.format() == "json" {
				return writeJSON(a.out, list)
			}
			if len(list) == 0 {
				fmt.Fprintln(a.out, "No attendees.")
				return nil
			}
			fmt.Fprintln(a.out, strings.Join(list, "\n"))
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&add, "add", nil, "emails to add")
	cmd.Flags().StringSliceVar(&remove, "remove", nil, "emails to remove")
	return cmd
}

func newInstancesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "instances EVENT_ID",
		Short: "List every occurrence of a recurring event, past and future",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := a.gateway().ListRecurrenceInstances(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.renderList(entries)
		},
	}
}

func newQuickAddCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "quick-add TEXT...",
		Short: `Create an event from free text, e.g. "Lunch with Sam tomorrow 12pm"`,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			en, err := a.gateway().QuickAdd(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			return a.renderOne(en)
		},
	}
}

func newLoginCmd(a *app) *cobra.Command {
	var noBrowser bool
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authorize gcalctl and cache the OAuth token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p := a.provider(true)
			p.Prompt = cmd.ErrOrStderr()
			if !noBrowser {
				p.OpenURL = a.openURL
			}
			if _, err := p.Login(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Token saved to %s\n", a.cfg.TokenFile)
			return nil
		},
	}
	cmd.Flags().BoolVar(&noBrowser, "no-browser", false, "only print the consent URL")
	return cmd
}
