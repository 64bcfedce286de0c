package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

var rejectedDir string

// screenCmd applies the participant exclusion checks to a directory.
var screenCmd = &cobra.Command{
	Use:   "screen <dir>",
	Short: "Screen every session file in a directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		processor, err := newProcessor(cmd)
		if err != nil {
			return err
		}

		paths, err := filepath.Glob(filepath.Join(args[0], "*.json"))
		if err != nil {
			return err
		}
		sort.Strings(paths)

		if rejectedDir != "" {
			if err := os.MkdirAll(rejectedDir, 0o755); err != nil {
				return fmt.Errorf("creating rejected directory: %w", err)
			}
		}

		out := cmd.OutOrStdout()
		var accepted, rejected int
		for _, path := range paths {
			trials, err := loadTrials(path)
			if err != nil {
				fmt.Fprintf(out, "%s: unreadable: %v\n", filepath.Base(path), err)
				continue
			}

			id := participantID(path, trials)
			screening := processor.Process(id, trials).Summary.Screening
			if screening.Accepted {
				accepted++
				fmt.Fprintf(out, "%s: OK\n", id)
				continue
			}

			rejected++
			fmt.Fprintf(out, "%s: %s\n", id, strings.Join(screening.Reasons, "; "))
			if rejectedDir != "" {
				dest := filepath.Join(rejectedDir, filepath.Base(path))
				if err := os.Rename(path, dest); err != nil {
					return fmt.Errorf("moving %s: %w", path, err)
				}
			}
		}

		fmt.Fprintf(out, "screened %d sessions: %d accepted, %d rejected\n", len(paths), accepted, rejected)
		return nil
	},
}

func init() {
	screenCmd.Flags().StringVar(&rejectedDir, "rejected-dir", "", "move rejected session files here")
	rootCmd.AddCommand(screenCmd)
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
