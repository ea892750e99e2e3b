package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show label statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		counts, err := s.NoteRepo().LabelCounts(cmd.Context())
		if err != nil {
			return fmt.Errorf("query label counts: %w", err)
		}

		if len(counts) == 0 {
			fmt.Println("No labels recorded yet.")
			return nil
		}

		fmt.Printf("%-20s  %-10s  %8s  %10s\n", "Label", "Kind", "Total", "Confirmed")
		fmt.Println(strings.Repeat("─", 54))
		for _, c := range counts {
			fmt.Printf("%-20s  %-10s  %8d  %10d\n", c.Label, c.Kind, c.Total, c.Confirmed)
		}
		return nil
	},
}
