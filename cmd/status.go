package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show store statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		stats, err := st.Stats(ctx)
		if err != nil {
			return eris.Wrap(err, "store stats")
		}

		fmt.Printf("Records: %d\n", stats.TotalRecords)
		fmt.Printf("Runs:    %d\n", stats.TotalRuns)
		fmt.Println("By source:")
		for source, n := range stats.BySource {
			fmt.Printf("  %-10s %d\n", source, n)
		}
		fmt.Println("Top provinces:")
		for province, n := range stats.TopProvinces {
			fmt.Printf("  %-30s %d\n", province, n)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
