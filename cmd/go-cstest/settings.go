package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/urfave/cli/v2"

	"github.com/randomizedcoder/go-cstest/internal/config"
	"github.com/randomizedcoder/go-cstest/internal/settings"
	"github.com/randomizedcoder/go-cstest/internal/tui"
	"github.com/randomizedcoder/go-cstest/internal/wizard"
)

func settingsCommand() *cli.Command {
	return &cli.Command{
		Name:  "settings",
		Usage: "Inspect randomtest settings",
		Subcommands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Print the randomtest settings and command a run would use",
				Flags:  append(config.Flags(), sourceFlag()),
				Action: settingsShowAction,
			},
		},
	}
}

func settingsShowAction(c *cli.Context) error {
	source, err := settings.ParseSource(c.String(flagSource))
	if err != nil {
		return cli.Exit(err.Error(), exitFailed)
	}

	e, err := newEnv(c, source == settings.SourceInteractive, true)
	if err != nil {
		return err
	}

	s, err := e.orch.ResolveSettings(c.Context, source)
	if err != nil {
		if errors.Is(err, wizard.ErrCancelled) {
			return cli.Exit(tui.StatusLine(tui.LevelWarning, "Settings dialog cancelled"), exitCancelled)
		}
		return cli.Exit(tui.StatusLine(tui.LevelError, "%v", err), exitFailed)
	}

	fmt.Fprint(e.stdout, formatSettings(source, s))
	fmt.Fprintln(e.stdout, e.orch.RandomtestCommand(s).String())
	return nil
}

// formatSettings renders s as a two-column table.
func formatSettings(source settings.Source, s settings.Settings) string {
	t := table.NewWriter()
	t.SetTitle("Randomtest settings (%s)", source)
	t.SetStyle(table.StyleLight)
	t.AppendRows([]table.Row{
		{"Iterations", strconv.FormatUint(s.Iterations, 10)},
		{"Seed", strconv.FormatUint(s.Seed, 10)},
		{"Show full text", wizard.FormatYesNo(s.ShowFullText)},
		{"Avoid used options", wizard.FormatYesNo(s.AvoidUsedOptions)},
		{"Show choices", wizard.FormatYesNo(s.ShowChoices)},
		{"Show coverage", wizard.FormatYesNo(s.ShowCoverage)},
		{"Results in document", wizard.FormatYesNo(s.PutResultsInDocument)},
		{"Unique document", wizard.FormatYesNo(s.PutResultsInUniqueDocument)},
	})
	return t.Render() + "\n"
}

// snapshotStore returns the last-run store for cfg's workspace.
func snapshotStore(cfg *config.Config) settings.Store {
	if cfg.WorkspaceRoot == "" {
		return &settings.MemoryStore{}
	}
	return settings.NewFileStore(cfg.WorkspaceRoot)
}

// readOnlyStore loads snapshots but never saves them.
type readOnlyStore struct {
	settings.Store
}

// Save implements settings.Store and discards s.
func (readOnlyStore) Save(settings.Settings) error {
	return nil
}
