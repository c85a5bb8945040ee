package main

import (
	"github.com/spf13/cobra"

	"loan-decision-explainer/internal/utils"
)

func newTemplateCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "template",
		Short: "Print the applications CSV template",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), utils.NewTemplate())
			}
			data, err := utils.TemplateCSV()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the columns and sample application as JSON")

	return cmd
}
