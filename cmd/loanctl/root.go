package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"loan-decision-explainer/internal/config"
	"loan-decision-explainer/internal/handlers"
	"loan-decision-explainer/internal/services/pipeline"
	"loan-decision-explainer/internal/utils"
)

var version = "dev"

type rootOptions struct {
	modelPath  string
	policyPath string
	logLevel   string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "loanctl",
		Short: "loanctl - explain and improve loan decisions",
		Long: `loanctl runs the loan decision pipeline locally.

It predicts an application, explains which features drove the decision and
suggests what a rejected applicant could change.`,
		Version:      version,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.modelPath, "model", "", "Model artifact path or s3:// URL (default: MODEL_PATH or the bundled model)")
	cmd.PersistentFlags().StringVar(&opts.policyPath, "policy", "", "Policy YAML path (default: POLICY_PATH or the built-in policy)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return utils.InitLogger(opts.logLevel)
	}

	cmd.AddCommand(newDecisionCommand(opts, "predict", "Predict the decision for an application"))
	cmd.AddCommand(newDecisionCommand(opts, "explain", "Explain the decision for an application"))
	cmd.AddCommand(newDecisionCommand(opts, "recommend", "Recommend changes for a rejected application"))
	cmd.AddCommand(newBatchCommand(opts))
	cmd.AddCommand(newTemplateCommand())

	return cmd
}

func execute() error {
	return newRootCommand().Execute()
}

// loadPipeline builds the pipeline from the environment and flag overrides.
func (o *rootOptions) loadPipeline(ctx context.Context) (*pipeline.Pipeline, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if o.modelPath != "" {
		cfg.ModelPath = o.modelPath
	}
	if o.policyPath != "" {
		cfg.PolicyPath = o.policyPath
	}
	// The CLI never records or mails anything.
	cfg.DatabaseEnabled = false
	cfg.SESSenderEmail = ""

	deps, err := handlers.Bootstrap(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return deps.Pipeline, nil
}

// openInput opens path, or stdin for "-".
func openInput(cmd *cobra.Command, path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(cmd.InOrStdin()), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening input: %w", err)
	}
	return f, nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
