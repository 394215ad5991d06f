package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"bossnotifier/internal/app"
	"bossnotifier/internal/feed"
	"bossnotifier/internal/location"
	"bossnotifier/internal/scanner"
	logx "bossnotifier/pkg/logx"
)

// scanAlert is one alert the overlay would show.
type scanAlert struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

type collector []scanAlert

func (c *collector) Raise(title, detail string) {
	*c = append(*c, scanAlert{Title: title, Detail: detail})
}

func newScanCommand(configFlag *string) *cobra.Command {
	var (
		feedPath string
		asJSON   bool
		verbose  bool
	)
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan a raid snapshot once and print the alerts it would raise",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings(*configFlag)
			if err != nil {
				return err
			}
			if feedPath == "" {
				feedPath = s.FeedPath
			}
			level := "warn"
			if verbose {
				level = "debug"
			}

			var got collector
			file := feed.NewFile(feedPath)
			sc := scanner.New(file, &got,
				scanner.WithTable(app.Table(s.Categories)),
				scanner.WithNamer(location.Grid{CellSize: s.CellSize}),
				scanner.WithLogger(logx.NewConsole(level).With(logx.String("comp", "scan"))),
			)
			w, err := file.World()
			if errors.Is(err, scanner.ErrNoSession) {
				return fmt.Errorf("no raid in progress (%s)", feedPath)
			}
			if err != nil {
				return err
			}
			sc.Attach(w)
			if _, err := sc.ScanOnce(); err != nil {
				return err
			}

			if asJSON {
				if got == nil {
					got = collector{}
				}
				return writeJSON(cmd, got)
			}
			rows := make([][]string, 0, len(got))
			for _, a := range got {
				rows = append(rows, []string{a.Title, a.Detail})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Alert", "Location"}, rows))
			return nil
		},
	}
	cmd.Flags().StringVar(&feedPath, "feed", "", "Raid snapshot file (defaults to feed.path from config)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log skipped entities")
	return cmd
}
