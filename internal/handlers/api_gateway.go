// Package handlers provides HTTP and Lambda handlers for the loan decision explainer.
package handlers

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/aws/aws-lambda-go/events"
)

// APIGatewayHandler serves API Gateway proxy events through an http.Handler.
type APIGatewayHandler struct {
	handler http.Handler
}

// NewAPIGatewayHandler creates a Lambda handler around h.
func NewAPIGatewayHandler(h http.Handler) *APIGatewayHandler {
	return &APIGatewayHandler{handler: h}
}

// Handle processes API Gateway proxy requests.
func (h *APIGatewayHandler) Handle(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	// Handle CORS preflight
	if request.HTTPMethod == http.MethodOptions {
		return events.APIGatewayProxyResponse{
			StatusCode: http.StatusOK,
			Headers:    corsHeaders(""),
		}, nil
	}

	req, err := proxyRequest(ctx, request)
	if err != nil {
		return events.APIGatewayProxyResponse{
			StatusCode: http.StatusBadRequest,
			Headers:    corsHeaders("application/json"),
			Body:       fmt.Sprintf(`{"detail":%q}`, err.Error()),
		}, nil
	}

	w := newProxyResponseWriter()
	h.handler.ServeHTTP(w, req)

	return w.response(), nil
}

// proxyRequest converts an API Gateway proxy event into an *http.Request.
func proxyRequest(ctx context.Context, request events.APIGatewayProxyRequest) (*http.Request, error) {
	body := []byte(request.Body)
	if request.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(request.Body)
		if err != nil {
			return nil, fmt.Errorf("invalid base64 body: %w", err)
		}
		body = decoded
	}

	query := url.Values{}
	for k, vs := range request.MultiValueQueryStringParameters {
		query[k] = append(query[k], vs...)
	}
	for k, v := range request.QueryStringParameters {
		if _, ok := query[k]; !ok {
			query.Set(k, v)
		}
	}

	target := (&url.URL{Path: request.Path, RawQuery: query.Encode()}).String()
	req, err := http.NewRequestWithContext(ctx, request.HTTPMethod, target, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	for k, vs := range request.MultiValueHeaders {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	for k, v := range request.Headers {
		if req.Header.Get(k) == "" {
			req.Header.Set(k, v)
		}
	}
	if req.Header.Get("X-Request-ID") == "" && request.RequestContext.RequestID != "" {
		req.Header.Set("X-Request-ID", request.RequestContext.RequestID)
	}

	return req, nil
}

// proxyResponseWriter buffers a handler response for API Gateway.
type proxyResponseWriter struct {
	header http.Header
	status int
	body   bytes.Buffer
}

func newProxyResponseWriter() *proxyResponseWriter {
	return &proxyResponseWriter{header: http.Header{}}
}

func (w *proxyResponseWriter) Header() http.Header {
	return w.header
}

func (w *proxyResponseWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.body.Write(b)
}

func (w *proxyResponseWriter) WriteHeader(status int) {
	if w.status == 0 {
		w.status = status
	}
}

func (w *proxyResponseWriter) response() events.APIGatewayProxyResponse {
	status := w.status
	if status == 0 {
		status = http.StatusOK
	}

	headers := corsHeaders("")
	for k, vs := range w.header {
		headers[k] = strings.Join(vs, ",")
	}

	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    headers,
		Body:       w.body.String(),
	}
}

// corsHeaders returns the CORS headers every Lambda response carries.
func corsHeaders(contentType string) map[string]string {
	headers := map[string]string{
		"Access-Control-Allow-Origin":  "*",
		"Access-Control-Allow-Headers": "Content-Type,Authorization,X-Request-ID",
		"Access-Control-Allow-Methods": "GET,POST,OPTIONS",
	}
	if contentType != "" {
		headers["Content-Type"] = contentType
	}
	return headers
}
