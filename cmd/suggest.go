package cmd

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/memotag/internal/suggest"
)

var suggestCmd = &cobra.Command{
	Use:   "suggest",
	Short: "Resurface one note per category",
	RunE: func(cmd *cobra.Command, args []string) error {
		days, _ := cmd.Flags().GetInt("days")

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		rng := rand.New(rand.NewSource(time.Now().UnixNano()))
		svc := suggest.NewService(s.NoteRepo(), suggest.DefaultLeastShownWeight, rng)

		suggestions, err := svc.GetSuggestions(cmd.Context(), days)
		if err != nil {
			return err
		}

		if len(suggestions) == 0 {
			fmt.Println("Nothing to suggest yet. Capture and label some notes first.")
			return nil
		}

		for _, sg := range suggestions {
			fmt.Printf("[%s] %s\n", sg.Category, truncate(sg.Content, 76))
		}
		return nil
	},
}

func init() {
	suggestCmd.Flags().Int("days", 30, "Only consider notes captured within this many days")
}
