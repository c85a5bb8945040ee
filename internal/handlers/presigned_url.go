// Package handlers provides HTTP and Lambda handlers for the loan decision explainer.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"path"
	"time"

	"github.com/google/uuid"

	s3service "loan-decision-explainer/internal/services/s3"
	"loan-decision-explainer/internal/utils"
)

// uploadURLExpiry is how long a batch upload URL stays valid.
const uploadURLExpiry = time.Hour

// UploadURLSigner issues presigned PUT URLs into the batch bucket.
type UploadURLSigner interface {
	GeneratePresignedUploadURL(ctx context.Context, key string, contentType string, expiry time.Duration) (*s3service.PresignedURLResult, error)
}

// UploadURLRequest is the body of /batch/upload-url.
type UploadURLRequest struct {
	Filename string `json:"filename"`
}

// UploadURLResponse is the response structure for upload URL requests.
type UploadURLResponse struct {
	UploadURL string `json:"upload_url"`
	S3Key     string `json:"s3_key"`
	ExpiresIn int    `json:"expires_in"`
}

func (a *API) uploadURLHandler(w http.ResponseWriter, r *http.Request) {
	if a.opts.Uploads == nil {
		writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{Detail: "batch uploads are not configured"})
		return
	}

	var req UploadURLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, r, "upload_url", badRequest("invalid request body: %v", err))
		return
	}

	filename := req.Filename
	if filename == "" {
		filename = "upload_" + uuid.New().String()[:8] + ".csv"
	}
	if !csvFilename(filename) {
		writeError(w, r, "upload_url", badRequest("only CSV files are allowed"))
		return
	}

	key := UploadKey(time.Now(), uuid.New().String(), filename)
	result, err := a.opts.Uploads.GeneratePresignedUploadURL(r.Context(), key, "text/csv", uploadURLExpiry)
	if err != nil {
		writeError(w, r, "upload_url", err)
		return
	}

	utils.Logger.Info("Issued batch upload URL",
		utils.String("request_id", requestID(r.Context())),
		utils.String("s3Key", result.Key),
	)

	writeJSON(w, http.StatusOK, UploadURLResponse{
		UploadURL: result.URL,
		S3Key:     result.Key,
		ExpiresIn: int(uploadURLExpiry.Seconds()),
	})
}

// UploadKey builds the object key a batch CSV is uploaded under.
func UploadKey(now time.Time, id, filename string) string {
	return uploadPrefix + now.UTC().Format("2006/01/02") + "/" + id + "_" + sanitizeFilename(path.Base(filename))
}

// sanitizeFilename removes unsafe characters from filename.
func sanitizeFilename(filename string) string {
	safe := make([]rune, 0, len(filename))
	for _, r := range filename {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') || r == '.' || r == '-' || r == '_' {
			safe = append(safe, r)
		}
	}
	if len(safe) > 100 {
		safe = safe[:100]
	}
	return string(safe)
}
