package commands

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"amazon-suisyou/internal/report"
	"amazon-suisyou/lib/serviceutil"
	"amazon-suisyou/lib/timezone"

	"github.com/spf13/cobra"
)

const defaultTopRows = 200

var reportInput *string
var reportTop *int
var reportOut *string
var reportEmail *string

func init() {
	reportInput = reportCmd.Flags().String("input", "report.csv", "The restock report to ingest (CP932 or UTF-8 CSV).")
	reportTop = reportCmd.Flags().Int("top", 0, "How many of the top-ranked rows get their image resolved. 0 uses the config value.")
	reportOut = reportCmd.Flags().String("out", "", "Write the augmented report to this CSV file.")
	reportEmail = reportCmd.Flags().String("email", "", "Send the augmented report to this address.")
	rootCmd.AddCommand(reportCmd)
}

var reportCmd = &cobra.Command{
	Use:   "report [--input <report.csv>] [--top <n>] [--out <out.csv>] [--email <addr>]",
	Short: "Rank a restock report by recommended quantity and attach product images to the top rows.",
	Run: func(cmd *cobra.Command, args []string) {
		file, err := os.Open(*reportInput)
		if err != nil {
			serviceutil.Fatal("open report", err)
		}
		rep, err := report.Read(file)
		file.Close()
		if err != nil {
			serviceutil.Fatal("read report", err)
		}
		rep.Rank()

		top := *reportTop
		if top <= 0 {
			top = cfg.Report.Top
		}
		if top <= 0 {
			top = defaultTopRows
		}

		resolver, cleanup := newResolver(cmd.Context())
		defer cleanup()

		t1 := time.Now()
		rep.Augment(cmd.Context(), resolver, top)
		slog.Info("resolved images", "rows", len(rep.Rows), "top", top, "seconds", time.Since(t1).Seconds())

		rep.RenderTable(os.Stdout, top)

		if *reportOut != "" {
			out, err := os.Create(*reportOut)
			if err != nil {
				serviceutil.Fatal("create output csv", err)
			}
			err = rep.WriteCSV(out)
			if err == nil {
				err = out.Close()
			}
			if err != nil {
				serviceutil.Fatal("write output csv", err)
			}
			slog.Info("wrote augmented report", "path", *reportOut)
		}

		if *reportEmail != "" {
			emailCfg := cfg.Email
			emailCfg.To = []string{*reportEmail}

			day := timezone.Now().Format("2006-01-02")
			subject := "在庫補充レポート " + day
			err := rep.Email(emailCfg, subject, fmt.Sprintf("restock-%s.csv", day))
			if err != nil {
				serviceutil.Fatal("email report", err)
			}
			slog.Info("sent report", "to", *reportEmail)
		}
	},
}
