// Package ses provides email notification services via AWS SES
package ses

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"go.uber.org/zap"

	appConfig "loan-decision-explainer/internal/config"
	"loan-decision-explainer/internal/utils"
)

// Service handles SES email operations
type Service struct {
	client    *ses.Client
	fromEmail string
}

// EmailParams represents parameters for sending an email
type EmailParams struct {
	To       string
	Subject  string
	HTMLBody string
	TextBody string
	ReplyTo  string
}

// BatchSummaryParams contains data for the batch prediction summary email
type BatchSummaryParams struct {
	To             string
	BatchID        string
	SourceKey      string
	ResultKey      string
	Total          int
	Succeeded      int
	Failed         int
	Approved       int
	Rejected       int
	ProcessingTime time.Duration
}

// SendEmailResult contains the result of sending an email
type SendEmailResult struct {
	MessageID string
	SentAt    time.Time
}

// NewService creates a new SES service
func NewService(ctx context.Context, appCfg *appConfig.Config) (*Service, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(appCfg.AWSRegion))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &Service{
		client:    ses.NewFromConfig(cfg),
		fromEmail: appCfg.SESSenderEmail,
	}, nil
}

// SendEmail sends a basic email
func (s *Service) SendEmail(ctx context.Context, params EmailParams) (*SendEmailResult, error) {
	input := &ses.SendEmailInput{
		Source: aws.String(s.fromEmail),
		Destination: &types.Destination{
			ToAddresses: []string{params.To},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data:    aws.String(params.Subject),
				Charset: aws.String("UTF-8"),
			},
			Body: &types.Body{},
		},
	}

	if params.HTMLBody != "" {
		input.Message.Body.Html = &types.Content{
			Data:    aws.String(params.HTMLBody),
			Charset: aws.String("UTF-8"),
		}
	}

	if params.TextBody != "" {
		input.Message.Body.Text = &types.Content{
			Data:    aws.String(params.TextBody),
			Charset: aws.String("UTF-8"),
		}
	}

	if params.ReplyTo != "" {
		input.ReplyToAddresses = []string{params.ReplyTo}
	}

	result, err := s.client.SendEmail(ctx, input)
	if err != nil {
		utils.Logger.Error("Failed to send email",
			zap.String("to", params.To),
			zap.String("subject", params.Subject),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to send email: %w", err)
	}

	utils.Logger.Info("Email sent successfully",
		zap.String("to", params.To),
		zap.String("subject", params.Subject),
		zap.String("messageId", aws.ToString(result.MessageId)),
	)

	return &SendEmailResult{
		MessageID: aws.ToString(result.MessageId),
		SentAt:    time.Now(),
	}, nil
}

// SendBatchSummary emails the outcome of a batch prediction run
func (s *Service) SendBatchSummary(ctx context.Context, params BatchSummaryParams) (*SendEmailResult, error) {
	htmlBody, err := RenderBatchSummaryHTML(params)
	if err != nil {
		return nil, fmt.Errorf("failed to render email template: %w", err)
	}

	return s.SendEmail(ctx, EmailParams{
		To:       params.To,
		Subject:  BatchSummarySubject(params),
		HTMLBody: htmlBody,
		TextBody: RenderBatchSummaryText(params),
	})
}

// BatchSummarySubject returns the subject line of the batch summary email
func BatchSummarySubject(params BatchSummaryParams) string {
	return fmt.Sprintf("Batch %s: %d applications scored, %d approved", params.BatchID, params.Succeeded, params.Approved)
}

var batchSummaryTemplate = template.Must(template.New("batch_summary").Parse(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        body { font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background: #1f4e79; color: white; padding: 24px; border-radius: 10px 10px 0 0; }
        .header h1 { margin: 0; font-size: 22px; }
        .content { background: #f9f9f9; padding: 24px; border-radius: 0 0 10px 10px; }
        table { width: 100%; border-collapse: collapse; }
        td { padding: 6px 0; border-bottom: 1px solid #e5e5e5; }
        td.value { text-align: right; font-weight: bold; }
        .footer { text-align: center; margin-top: 24px; color: #999; font-size: 12px; }
    </style>
</head>
<body>
    <div class="header">
        <h1>Batch prediction complete</h1>
        <p>Batch {{.BatchID}}</p>
    </div>
    <div class="content">
        <table>
            <tr><td>Source file</td><td class="value">{{.SourceKey}}</td></tr>
            <tr><td>Rows</td><td class="value">{{.Total}}</td></tr>
            <tr><td>Scored</td><td class="value">{{.Succeeded}}</td></tr>
            <tr><td>Approved</td><td class="value">{{.Approved}}</td></tr>
            <tr><td>Rejected</td><td class="value">{{.Rejected}}</td></tr>
            <tr><td>Invalid rows</td><td class="value">{{.Failed}}</td></tr>
            <tr><td>Processing time</td><td class="value">{{.ProcessingTime}}</td></tr>
        </table>
        {{if .ResultKey}}<p>Results were written to <code>{{.ResultKey}}</code>.</p>{{end}}
    </div>
    <div class="footer">
        <p>This email was sent by Loan Decision Explainer</p>
    </div>
</body>
</html>`))

// RenderBatchSummaryHTML renders the HTML email body
func RenderBatchSummaryHTML(params BatchSummaryParams) (string, error) {
	var buf bytes.Buffer
	if err := batchSummaryTemplate.Execute(&buf, params); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// RenderBatchSummaryText renders the plain text email body
func RenderBatchSummaryText(params BatchSummaryParams) string {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Batch %s is complete.\n\n", params.BatchID))
	buf.WriteString(fmt.Sprintf("Source file:     %s\n", params.SourceKey))
	buf.WriteString(fmt.Sprintf("Rows:            %d\n", params.Total))
	buf.WriteString(fmt.Sprintf("Scored:          %d\n", params.Succeeded))
	buf.WriteString(fmt.Sprintf("Approved:        %d\n", params.Approved))
	buf.WriteString(fmt.Sprintf("Rejected:        %d\n", params.Rejected))
	buf.WriteString(fmt.Sprintf("Invalid rows:    %d\n", params.Failed))
	buf.WriteString(fmt.Sprintf("Processing time: %s\n", params.ProcessingTime))

	if params.ResultKey != "" {
		buf.WriteString(fmt.Sprintf("\nResults: %s\n", params.ResultKey))
	}

	buf.WriteString("\nLoan Decision Explainer\n")

	return buf.String()
}
