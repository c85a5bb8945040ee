package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"loan-decision-explainer/internal/handlers"
	"loan-decision-explainer/internal/utils"
)

func newBatchCommand(root *rootOptions) *cobra.Command {
	var (
		output string
		check  bool
	)

	cmd := &cobra.Command{
		Use:   "batch <applications.csv>",
		Short: "Predict every application in a CSV file",
		Long: `Predict every application in a CSV file.

The file uses the template columns (see "loanctl template"). One prediction
row is written per application; unreadable rows are reported inline.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openInput(cmd, args[0])
			if err != nil {
				return err
			}
			content, err := io.ReadAll(r)
			r.Close()
			if err != nil {
				return fmt.Errorf("reading input: %w", err)
			}

			if check {
				result, err := utils.ValidateCSVStructure(string(content))
				if err != nil {
					return err
				}
				if err := writeJSON(cmd.OutOrStdout(), result); err != nil {
					return err
				}
				if !result.Valid {
					return fmt.Errorf("%s is not a valid applications CSV", args[0])
				}
				return nil
			}

			p, err := root.loadPipeline(cmd.Context())
			if err != nil {
				return err
			}

			out, batch, err := handlers.PredictCSV(cmd.Context(), p, string(content))
			if err != nil {
				return err
			}

			if output == "" || output == "-" {
				if _, err := cmd.OutOrStdout().Write(out); err != nil {
					return err
				}
			} else if err := os.WriteFile(output, out, 0o644); err != nil {
				return fmt.Errorf("writing output: %w", err)
			}

			utils.Logger.Info("Batch complete",
				utils.Int("total", batch.Total),
				utils.Int("failed", batch.Failed))
			fmt.Fprintf(cmd.ErrOrStderr(), "%d applications: %d approved, %d rejected, %d failed\n",
				batch.Total, batch.Approved, batch.Rejected, batch.Failed)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Predictions CSV path (default stdout)")
	cmd.Flags().BoolVar(&check, "check", false, "Only check the CSV structure, without predicting")

	return cmd
}
