package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/vnbizdata/collector-cli/internal/store"
)

var (
	recordsTaxID string
	recordsLimit int
)

var recordsCmd = &cobra.Command{
	Use:   "records",
	Short: "Inspect stored records",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")

		if recordsTaxID != "" {
			rec, err := st.GetRecord(ctx, recordsTaxID)
			if err != nil {
				return eris.Wrap(err, "get record")
			}
			if rec == nil {
				return eris.Errorf("no record for tax id %s", recordsTaxID)
			}
			return enc.Encode(rec)
		}

		records, err := st.ListRecords(ctx, store.RecordFilter{Limit: recordsLimit})
		if err != nil {
			return eris.Wrap(err, "list records")
		}
		return enc.Encode(records)
	},
}

func init() {
	recordsCmd.Flags().StringVar(&recordsTaxID, "tax-id", "", "show the record for one tax id")
	recordsCmd.Flags().IntVar(&recordsLimit, "limit", 20, "maximum records to list")
	rootCmd.AddCommand(recordsCmd)
}
