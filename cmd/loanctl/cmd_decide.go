package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"loan-decision-explainer/internal/models"
)

func newDecisionCommand(root *rootOptions, name, short string) *cobra.Command {
	var input string

	cmd := &cobra.Command{
		Use:   name,
		Short: short,
		Long: short + `.

The application is read as JSON from --input ("-" for stdin). Without
--input the sample application is used.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := readApplication(cmd, input)
			if err != nil {
				return err
			}

			v, err := app.ToFeatureVector()
			if err != nil {
				return err
			}

			p, err := root.loadPipeline(cmd.Context())
			if err != nil {
				return err
			}

			var result interface{}
			switch name {
			case "predict":
				result, err = p.Predictor.Predict(cmd.Context(), v)
			case "explain":
				result, err = p.Explainer.Explain(cmd.Context(), v)
			default:
				result, err = p.Recommender.Recommend(cmd.Context(), v)
			}
			if err != nil {
				return err
			}

			return writeJSON(cmd.OutOrStdout(), result)
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "Application JSON file, or - for stdin")

	return cmd
}

func readApplication(cmd *cobra.Command, path string) (models.LoanApplication, error) {
	if path == "" {
		return models.SampleApplication(), nil
	}

	r, err := openInput(cmd, path)
	if err != nil {
		return models.LoanApplication{}, err
	}
	defer r.Close()

	var app models.LoanApplication
	if err := json.NewDecoder(r).Decode(&app); err != nil {
		return models.LoanApplication{}, fmt.Errorf("decoding application: %w", err)
	}
	return app, nil
}
