package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/arnavshah/advent-allocator/pkg/allocator"
	"github.com/arnavshah/advent-allocator/pkg/export"
	"github.com/arnavshah/advent-allocator/pkg/models"
	"github.com/arnavshah/advent-allocator/pkg/roster"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

type allocateOptions struct {
	input      string
	year       int
	fixed      string
	neverFirst []string
	seed       int64
	csvPath    string
	htmlPath   string
	xlsxPath   string
}

func newAllocateCmd() *cobra.Command {
	opts := &allocateOptions{}
	cmd := &cobra.Command{
		Use:   "allocate",
		Short: "Allocate a roster file or URL and print the calendar",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAllocate(cmd, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.input, "input", "i", "", "roster file (.csv, .xlsx) or URL")
	flags.IntVar(&opts.year, "year", 0, "calendar year (defaults to configuration)")
	flags.StringVar(&opts.fixed, "fixed", "", "participant fixed to day 24 (defaults to configuration)")
	flags.StringSliceVar(&opts.neverFirst, "never-first", nil, "labels that must not land on day 1")
	flags.Int64Var(&opts.seed, "seed", 0, "random seed for a reproducible calendar")
	flags.StringVar(&opts.csvPath, "csv", "", "write the calendar as CSV to this path")
	flags.StringVar(&opts.htmlPath, "html", "", "write the calendar cards as HTML to this path")
	flags.StringVar(&opts.xlsxPath, "xlsx", "", "write the calendar as an Excel workbook to this path")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func runAllocate(cmd *cobra.Command, opts *allocateOptions) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if opts.year != 0 {
		cfg.Year = opts.year
	}
	if opts.fixed != "" {
		cfg.FixedParticipant = opts.fixed
	}
	if cmd.Flags().Changed("never-first") {
		cfg.NeverFirst = opts.neverFirst
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	names, err := readRoster(cmd.Context(), opts.input, roster.NewFetcher(cfg.FetchTimeout))
	if err != nil {
		return err
	}

	src := allocator.TimeSource()
	if cmd.Flags().Changed("seed") {
		src = allocator.NewSource(opts.seed)
	}
	res, err := allocator.New(cfg.Policy(), src).Allocate(names)
	if err != nil {
		return err
	}

	views, err := export.Views(res.Bags, cfg.Year)
	if err != nil {
		return err
	}
	if err := printCalendar(cmd.OutOrStdout(), views); err != nil {
		return err
	}

	rows := export.Rows(views)
	outputs := []struct {
		path  string
		write func(io.Writer) error
	}{
		{opts.csvPath, func(w io.Writer) error { return export.WriteCSV(w, rows) }},
		{opts.htmlPath, func(w io.Writer) error { return export.WriteHTML(w, views, cfg.Year) }},
		{opts.xlsxPath, func(w io.Writer) error { return export.WriteXLSX(w, rows) }},
	}
	for _, out := range outputs {
		if out.path == "" {
			continue
		}
		if err := writeFile(out.path, out.write); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s\n", out.path)
	}
	return nil
}

func readRoster(ctx context.Context, input string, fetcher *roster.Fetcher) ([]string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	var names []string
	if strings.Contains(input, "://") {
		fetched, err := fetcher.Fetch(ctx, input)
		if err != nil {
			return nil, err
		}
		names = fetched
	} else {
		f, err := os.Open(input)
		if err != nil {
			return nil, eris.Wrapf(err, "failed to open roster %s", input)
		}
		defer f.Close()
		if names, err = roster.Read(input, f); err != nil {
			return nil, err
		}
	}
	if len(names) == 0 {
		return nil, eris.Errorf("%s seems empty", input)
	}
	return names, nil
}

func printCalendar(w io.Writer, views []models.BagView) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DAY\tASSIGNED\tPICKUP")
	for _, v := range views {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", v.Day, strings.Join(v.Assigned, " & "), v.Pickup)
	}
	return tw.Flush()
}

func writeFile(path string, write func(io.Writer) error) error {
	var buf bytes.Buffer
	if err := write(&buf); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return eris.Wrapf(err, "failed to write %s", path)
	}
	return nil
}
