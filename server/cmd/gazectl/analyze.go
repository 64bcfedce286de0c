package main

import (
	"encoding/json"
	"fmt"

	"experiment-go/server/internal/services"

	"github.com/spf13/cobra"
)

var enrichedOut string

type analyzeOutput struct {
	services.SessionSummary
	Trials []trialOutput `json:"eye_tracking_trials_detail"`
}

type trialOutput struct {
	TrialIndex          int      `json:"trial_index"`
	TextID              string   `json:"text_id"`
	TotalSamples        int      `json:"total_samples"`
	ReadingTimePerWord  *float64 `json:"reading_time_per_word"`
	NumberOfFixations   int      `json:"number_of_fixations"`
	NumberOfRegressions int      `json:"number_of_regressions"`
}

// analyzeCmd reprocesses one saved session file.
var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>",
	Short: "Recompute the metrics of a saved session and print its summary",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		processor, err := newProcessor(cmd)
		if err != nil {
			return err
		}

		trials, err := loadTrials(args[0])
		if err != nil {
			return err
		}
		processed := processor.Process(participantID(args[0], trials), trials)

		if enrichedOut != "" {
			if err := writeJSON(enrichedOut, processed.Trials); err != nil {
				return err
			}
		}

		out := analyzeOutput{SessionSummary: processed.Summary, Trials: make([]trialOutput, 0, len(processed.Rows))}
		for _, row := range processed.Rows {
			out.Trials = append(out.Trials, trialOutput{
				TrialIndex:          row.TrialIndex,
				TextID:              row.TextID,
				TotalSamples:        row.TotalSamples,
				ReadingTimePerWord:  row.ReadingTimePerWord,
				NumberOfFixations:   row.NumberOfFixations,
				NumberOfRegressions: row.NumberOfRegressions,
			})
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			return fmt.Errorf("encoding summary: %w", err)
		}
		return nil
	},
}

func init() {
	analyzeCmd.Flags().StringVarP(&enrichedOut, "out", "o", "", "write the enriched trials to this file")
	rootCmd.AddCommand(analyzeCmd)
}
