package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete all notes, labels and event history",
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")
		if !force {
			fmt.Println("This deletes every note, label and LLM event. Re-run with --force to confirm.")
			return nil
		}

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		if err := s.Reset(cmd.Context()); err != nil {
			return fmt.Errorf("reset database: %w", err)
		}
		fmt.Println("Database reset.")
		return nil
	},
}

func init() {
	resetCmd.Flags().Bool("force", false, "Actually delete the data")
}
