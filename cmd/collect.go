package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vnbizdata/collector-cli/internal/export"
	"github.com/vnbizdata/collector-cli/internal/registry"
)

var (
	collectIndustry string
	collectLocation string
	collectCount    int
	collectExport   string
)

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Collect and reconcile company records for the given filters",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		orch := initOrchestrator(st)

		filters := registry.Filters{
			Industry: collectIndustry,
			Location: collectLocation,
		}
		records, report, err := orch.Run(ctx, filters, collectCount)
		if err != nil {
			return eris.Wrap(err, "collection run")
		}

		fmt.Printf("Requested: %d\n", report.Requested)
		fmt.Printf("Collected: %d\n", report.Collected)
		fmt.Printf("Skipped:   %d\n", report.Skipped)
		fmt.Printf("Degraded:  %d\n", report.Degraded)
		fmt.Printf("Failed:    %d\n", report.Failed)
		for _, f := range report.Failures {
			fmt.Printf("  %s  [%s] %s\n", f.TaxID, f.Stage, f.Error)
		}

		if collectExport != "" && len(records) > 0 {
			if err := export.WriteRecords(collectExport, records); err != nil {
				return eris.Wrap(err, "export records")
			}
			zap.L().Info("records exported",
				zap.String("path", collectExport),
				zap.Int("count", len(records)))
		}

		return nil
	},
}

func init() {
	collectCmd.Flags().StringVar(&collectIndustry, "industry", "", "industry filter, e.g. \"xây dựng\"")
	collectCmd.Flags().StringVar(&collectLocation, "location", "", "province/city filter, e.g. \"Hà Nội\"")
	collectCmd.Flags().IntVar(&collectCount, "count", 10, "number of companies to collect")
	collectCmd.Flags().StringVar(&collectExport, "export", "", "write collected records to this XLSX file")
	rootCmd.AddCommand(collectCmd)
}
