package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/memotag/internal/batch"
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Interactively label unclassified notes",
	Long:  "Scores a batch of unlabeled notes. High-confidence labels are applied automatically; the rest are offered for choice. Items left unresolved when the timer fires get their top candidate, unconfirmed.",
	RunE: func(cmd *cobra.Command, args []string) error {
		size, _ := cmd.Flags().GetInt("size")
		expiry, _ := cmd.Flags().GetDuration("timeout")

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		scorer, labels, err := buildScorer(cmd.Context(), s)
		if err != nil {
			return err
		}

		done := make(chan batch.Summary, 1)
		m := batch.NewManager(s.NoteRepo(), scorer, labels,
			batch.WithExpiry(expiry),
			batch.WithFinalize(func(sum batch.Summary) { done <- sum }),
		)

		fmt.Printf("Scoring up to %d notes...\n", size)
		pending, err := m.StartBatch(cmd.Context(), size)
		if err != nil {
			return err
		}

		if len(pending) == 0 {
			select {
			case sum := <-done:
				printSummary(sum)
			default:
				fmt.Println("Nothing to label.")
			}
			return nil
		}

		printPending(pending)
		fmt.Printf("\nChoose with \"<item> <label>\" (e.g. \"1 todo\"). %s until auto-assign.\n", expiry)

		choices := readChoices()
		for {
			select {
			case sum := <-done:
				printSummary(sum)
				return nil
			case line, ok := <-choices:
				if !ok {
					m.Cancel()
					fmt.Println("Input closed, batch cancelled.")
					return nil
				}
				applyChoice(m, pending, line)
			}
		}
	},
}

func printPending(pending []batch.PendingAssignment) {
	for i, p := range pending {
		fmt.Printf("\n%d) %s\n", i+1, truncate(p.Content, 70))
		if len(p.Candidates) == 0 {
			fmt.Println("   (no label suggestions)")
			continue
		}
		parts := make([]string, 0, len(p.Candidates))
		for _, c := range p.Candidates {
			parts = append(parts, fmt.Sprintf("%s (%d)", c.Label, c.Score))
		}
		fmt.Printf("   %s\n", strings.Join(parts, ", "))
	}
}

func applyChoice(m *batch.Manager, pending []batch.PendingAssignment, line string) {
	fields := strings.Fields(line)
	if len(fields) != 2 {
		fmt.Println("Expected: <item number> <label>")
		return
	}
	idx, err := strconv.Atoi(fields[0])
	if err != nil || idx < 1 || idx > len(pending) {
		fmt.Printf("No item %q\n", fields[0])
		return
	}
	m.Choose(pending[idx-1].ItemID, fields[1])
	fmt.Printf("Labeled item %d as %q\n", idx, fields[1])
}

func printSummary(sum batch.Summary) {
	fmt.Printf("\nBatch complete: %d auto-confirmed, %d chosen, %d auto-assigned\n",
		sum.AutoConfirmed, sum.Manual, sum.Auto)
}

// readChoices streams stdin lines. The channel closes on EOF.
func readChoices() <-chan string {
	ch := make(chan string)
	go func() {
		defer close(ch)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			ch <- scanner.Text()
		}
	}()
	return ch
}

func init() {
	batchCmd.Flags().IntP("size", "n", 10, "Maximum notes to score")
	batchCmd.Flags().Duration("timeout", batch.DefaultExpiry, "How long to wait before auto-assigning")
}
