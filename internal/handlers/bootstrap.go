// Package handlers provides HTTP and Lambda handlers for the loan decision explainer.
package handlers

import (
	"context"
	"fmt"
	"strings"

	"loan-decision-explainer/internal/config"
	"loan-decision-explainer/internal/services/database"
	"loan-decision-explainer/internal/services/model"
	"loan-decision-explainer/internal/services/pipeline"
	s3service "loan-decision-explainer/internal/services/s3"
	"loan-decision-explainer/internal/services/ses"
	"loan-decision-explainer/internal/utils"
)

// Dependencies holds the services shared by the HTTP server and the Lambda
// entry points. Optional services are nil when not configured.
type Dependencies struct {
	Config      *config.Config
	Pipeline    *pipeline.Pipeline
	Objects     *s3service.Service
	DB          *database.DB
	Assessments *database.AssessmentRepository
	Mailer      *ses.Service
}

// Bootstrap connects the configured services and loads the pipeline. Only a
// model or policy that cannot be loaded is fatal; an unreachable database
// leaves the service running without audit records.
func Bootstrap(ctx context.Context, cfg *config.Config) (*Dependencies, error) {
	deps := &Dependencies{Config: cfg}

	if cfg.S3Bucket != "" || strings.HasPrefix(cfg.ModelPath, "s3://") {
		objects, err := s3service.NewService(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create S3 service: %w", err)
		}
		deps.Objects = objects
		utils.Logger.Info("S3 configured", utils.String("bucket", objects.Bucket()))
	}

	var reader model.ObjectReader
	if deps.Objects != nil {
		reader = deps.Objects
	}
	p, err := pipeline.Load(ctx, cfg, reader)
	if err != nil {
		return nil, err
	}
	deps.Pipeline = p

	if cfg.DatabaseEnabled {
		db, err := database.New(ctx, cfg)
		if err != nil {
			utils.Logger.Warn("Could not connect to database, assessments will not be recorded", utils.Error(err))
		} else {
			deps.DB = db
			deps.Assessments = database.NewAssessmentRepository(db)
		}
	}

	if cfg.SESSenderEmail != "" {
		mailer, err := ses.NewService(ctx, cfg)
		if err != nil {
			utils.Logger.Warn("Could not create SES service, batch summaries disabled", utils.Error(err))
		} else {
			deps.Mailer = mailer
		}
	}

	return deps, nil
}

// APIOptions wires the configured services into the API.
func (d *Dependencies) APIOptions() APIOptions {
	var opts APIOptions
	if d.Assessments != nil {
		opts.Recorder = d.Assessments
	}
	if d.DB != nil {
		opts.Database = d.DB
	}
	if d.Objects != nil {
		opts.Uploads = d.Objects
	}
	return opts
}

// CSVProcessorOptions wires the configured services into the CSV processor.
func (d *Dependencies) CSVProcessorOptions() CSVProcessorOptions {
	opts := CSVProcessorOptions{NotifyEmail: d.Config.BatchNotifyEmail}
	if d.Assessments != nil {
		opts.Recorder = d.Assessments
	}
	if d.Mailer != nil {
		opts.Notifier = d.Mailer
	}
	return opts
}

// HealthChecker returns the database as a health checker, or nil.
func (d *Dependencies) HealthChecker() HealthChecker {
	if d.DB == nil {
		return nil
	}
	return d.DB
}

// Close releases the database pool.
func (d *Dependencies) Close() {
	if d.DB != nil {
		d.DB.Close()
	}
}
