package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vnbizdata/collector-cli/internal/export"
	"github.com/vnbizdata/collector-cli/internal/model"
	"github.com/vnbizdata/collector-cli/internal/store"
)

var (
	exportOut      string
	exportProvince string
	exportSource   string
	exportLimit    int
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export stored records to an XLSX file",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		out := exportOut
		if out == "" {
			out = cfg.Export.Path
		}

		records, err := st.ListRecords(ctx, store.RecordFilter{
			Province: exportProvince,
			Source:   model.DataSource(exportSource),
			Limit:    exportLimit,
		})
		if err != nil {
			return eris.Wrap(err, "list records")
		}
		if len(records) == 0 {
			zap.L().Warn("no records matched the filter, nothing to export")
			return nil
		}

		if err := export.WriteRecords(out, records); err != nil {
			return eris.Wrap(err, "export records")
		}
		zap.L().Info("records exported",
			zap.String("path", out),
			zap.Int("count", len(records)))
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportOut, "out", "", "output XLSX path (default from config)")
	exportCmd.Flags().StringVar(&exportProvince, "province", "", "filter by province")
	exportCmd.Flags().StringVar(&exportSource, "source", "", "filter by data source (primary|dual)")
	exportCmd.Flags().IntVar(&exportLimit, "limit", 0, "maximum records to export (default 100)")
	rootCmd.AddCommand(exportCmd)
}
