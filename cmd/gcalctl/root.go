package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/pkg/browser"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/oauth2"

	"gcalctl/internal/auth"
	"gcalctl/internal/config"
	"gcalctl/internal/gateway"
	"gcalctl/internal/googlecal"
	"gcalctl/internal/ics"
	appLog "gcalctl/internal/log"
)

// app carries what every command needs once the config is resolved.
type app struct {
	v       *viper.Viper
	cfg     *config.Config
	loc     *time.Location
	out     io.Writer
	now     func() time.Time
	fetcher *ics.Fetcher
	// openURL launches the consent page during login.
	openURL func(url string)

	// newGateway builds the gateway for one command; tests swap the client.
	newGateway func(cfg *config.Config, creds gateway.CredentialProvider) *gateway.Gateway
}

func newApp() *app {
	return &app{
		v:          viper.New(),
		now:        time.Now,
		fetcher:    ics.NewFetcher(0),
		openURL:    openBrowser,
		newGateway: googleGateway,
	}
}

func openBrowser(url string) {
	browser.Stdout, browser.Stderr = io.Discard, io.Discard
	if err := browser.OpenURL(url); err != nil {
		appLog.Debug("login: no browser available", "error", err.Error())
	}
}

func googleGateway(cfg *config.Config, creds gateway.CredentialProvider) *gateway.Gateway {
	dial := func(ctx context.Context, ts oauth2.TokenSource) (gateway.Client, error) {
		return googlecal.Dial(ctx, ts)
	}
	return gateway.New(creds, dial,
		gateway.WithCalendarID(cfg.CalendarID),
		gateway.WithStrictDayLong(cfg.Strict()))
}

// persistent flag name -> config key
var boundFlags = map[string]string{
	"config":           "config",
	"calendar-id":      "calendar_id",
	"format":           "format",
	"log-level":        "log_level",
	"log-format":       "log_format",
	"timezone":         "display_timezone",
	"strict-day-long":  "strict_day_long",
	"watch-schedule":   "watch_schedule",
	"credentials-file": "credentials_file",
	"token-file":       "token_file",
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "gcalctl",
		Short: "Manage Google Calendar events from the command line",
		Long: `gcalctl lists, creates and edits events on a Google Calendar, including
recurring series and their attendees.

Settings come from the config file, GCALCTL_* environment variables (a .env
file in the working directory is loaded first) and flags, in increasing order
of precedence.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a.out = cmd.OutOrStdout()
			return a.setup()
		},
	}

	pf := root.PersistentFlags()
	pf.String("config", config.DefaultPath(), "path to the config file")
	pf.String("calendar-id", "", "calendar to operate on (default from config)")
	pf.StringP("format", "o", "text", "output format: text, json or ics")
	pf.String("log-level", "", "log level: debug, info or error")
	pf.String("log-format", "", "log encoding: console or json")
	pf.String("timezone", "", "IANA timezone used to display times")
	pf.Bool("strict-day-long", true, "reject events whose start and end disagree on being all-day")
	pf.String("watch-schedule", "", "cron schedule for the watch command")
	pf.String("credentials-file", "", "OAuth client secret JSON")
	pf.String("token-file", "", "cached OAuth token")

	for name, key := range boundFlags {
		_ = a.v.BindPFlag(key, pf.Lookup(name))
	}
	a.v.SetEnvPrefix("GCALCTL")
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()

	root.AddCommand(
		newLoginCmd(a),
		newListCmd(a),
		newGetCmd(a),
		newCreateCmd(a),
		newUpdateCmd(a),
		newAttendeesCmd(a),
		newInstancesCmd(a),
		newQuickAddCmd(a),
		newPreviewCmd(a),
		newWatchCmd(a),
	)
	return root
}

// setup loads the config file and layers env and flag overrides on top.
func (a *app) setup() error {
	path := a.v.GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		if cfg == nil {
			return fmt.Errorf("load config: %w", err)
		}
		appLog.Error("config: could not write default config", err, "path", path)
	}

	setIf := func(key string, dst *string) {
		if a.v.IsSet(key) && a.v.GetString(key) != "" {
			*dst = a.v.GetString(key)
		}
	}
	setIf("calendar_id", &cfg.CalendarID)
	setIf("log_level", &cfg.LogLevel)
	setIf("log_format", &cfg.LogFormat)
	setIf("display_timezone", &cfg.DisplayTimezone)
	setIf("watch_schedule", &cfg.WatchSchedule)
	setIf("credentials_file", &cfg.CredentialsFile)
	setIf("token_file", &cfg.TokenFile)
	if a.v.IsSet("strict_day_long") {
		strict := a.v.GetBool("strict_day_long")
		cfg.StrictDayLong = &strict
	}

	appLog.SetFormat(cfg.LogFormat)
	appLog.SetLevel(appLog.ParseLevel(cfg.LogLevel))

	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	a.cfg, a.loc = cfg, loc

	appLog.Debug("effective config",
		"config_path", path,
		"calendar_id", cfg.CalendarID,
		"strict_day_long", cfg.Strict(),
		"display_timezone", cfg.DisplayTimezone,
		"token_file", cfg.TokenFile,
	)
	return nil
}

func (a *app) provider(interactive bool) *auth.FileProvider {
	return &auth.FileProvider{
		CredentialsFile: a.cfg.CredentialsFile,
		TokenFile:       a.cfg.TokenFile,
		Scopes:          a.cfg.Scopes,
		Interactive:     interactive,
	}
}

func (a *app) gateway() *gateway.Gateway {
	return a.newGateway(a.cfg, a.provider(false))
}

func (a *app) format() string {
	return strings.ToLower(a.v.GetString("format"))
}
