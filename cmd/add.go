package cmd

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/memotag/internal/notes"
)

var addCmd = &cobra.Command{
	Use:   "add [text]",
	Short: "Capture a note and classify it",
	Long:  "Captures a note from arguments or stdin. The note is saved immediately; classification runs in the background and its labels are persisted when it finishes.",
	RunE: func(cmd *cobra.Command, args []string) error {
		content := strings.TrimSpace(strings.Join(args, " "))
		if content == "" {
			data, err := io.ReadAll(os.Stdin)
			if err != nil {
				return fmt.Errorf("read stdin: %w", err)
			}
			content = strings.TrimSpace(string(data))
		}
		if content == "" {
			return fmt.Errorf("nothing to capture")
		}

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		scorer, labels, err := buildScorer(cmd.Context(), s)
		if err != nil {
			return err
		}

		svc := notes.NewService(s.NoteRepo(), scorer, labels)
		n, err := svc.Capture(cmd.Context(), content, extractURLs(content))
		if err != nil {
			return err
		}
		fmt.Printf("Captured %s\n", n.ID)

		// The process is about to exit, so the background classification
		// gets drained here instead of being abandoned.
		fmt.Println("Classifying...")
		svc.Wait()
		fmt.Println("Done.")
		return nil
	},
}

var addURLPattern = regexp.MustCompile(`https?://\S+`)

func extractURLs(content string) []string {
	return addURLPattern.FindAllString(content, -1)
}
