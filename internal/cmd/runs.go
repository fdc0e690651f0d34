package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/rodaine/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/masahif/linkaudit/internal/storage"
)

// errNoDatabase is returned when runs is used without an export database
var errNoDatabase = errors.New("no database given; use --database or LA_DATABASE_PATH")

var runsCmd = &cobra.Command{
	Use:   "runs [run-id]",
	Short: "List exported runs, or the broken links of one run",
	Long: `Reads a database written with --database. Without arguments every stored
run is listed, newest first. With a run ID the broken links of that run are
printed.`,
	Args:          cobra.MaximumNArgs(1),
	RunE:          runRuns,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func runRuns(cmd *cobra.Command, args []string) error {
	path := viper.GetString("database_path")
	if path == "" {
		return errNoDatabase
	}
	// Listing must not create an empty database as a side effect.
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("cannot open database %s: %w", path, err)
	}

	store, err := storage.NewSQLiteStorage(path)
	if err != nil {
		return fmt.Errorf("failed to open database %s: %w", path, err)
	}
	defer func() { _ = store.Close() }()

	if len(args) == 1 {
		return printBrokenLinks(cmd, store, args[0])
	}
	return printRuns(cmd, store)
}

func printRuns(cmd *cobra.Command, store *storage.SQLiteStorage) error {
	runs, err := store.ListRuns()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No runs exported yet")
		return nil
	}

	tbl := table.New("Run", "Root", "Started", "Checked", "Broken", "Complete").WithWriter(cmd.OutOrStdout())
	for _, run := range runs {
		tbl.AddRow(
			run.ID,
			run.RootURL,
			humanize.Time(run.StartedAt),
			humanize.Comma(int64(run.Checked)),
			humanize.Comma(int64(run.BrokenCount)),
			run.Complete,
		)
	}
	tbl.Print()
	return nil
}

func printBrokenLinks(cmd *cobra.Command, store *storage.SQLiteStorage, runID string) error {
	run, err := store.GetRun(runID)
	if err != nil {
		return err
	}
	links, err := store.ListBrokenLinks(runID)
	if err != nil {
		return err
	}
	visited, checked, err := store.CountPages(runID)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s: %s broken of %s checked, %s pages visited\n",
		run.RootURL,
		humanize.Comma(int64(run.BrokenCount)),
		humanize.Comma(int64(checked)),
		humanize.Comma(int64(visited)))
	if !run.Complete {
		fmt.Fprintln(out, "Crawl did not finish; results are partial")
	}
	for _, link := range links {
		fmt.Fprintf(out, "%s - %s\n", link.URL, link.Referrer)
	}
	return nil
}
