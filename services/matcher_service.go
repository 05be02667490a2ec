package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"time"
)

// MatchVerdict is the external matching engine's decision for one submission
type MatchVerdict struct {
	MatchFound      bool    `json:"match_found"`
	MatchedUserID   string  `json:"matched_user_id,omitempty"`
	SimilarityScore float64 `json:"similarity_score,omitempty"`
}

// SelfieSubmission carries one captured selfie to the matching engine
type SelfieSubmission struct {
	Selfie      []byte
	ContentType string
	UserID      string
	Latitude    string
	Longitude   string
}

// MatcherService forwards selfies to the external vibe matcher over HTTP.
// The engine's matching algorithm is opaque; this service only speaks its
// wire format.
type MatcherService struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewMatcherService creates a MatcherService with a bounded HTTP client
func NewMatcherService(baseURL string, timeout time.Duration) *MatcherService {
	return &MatcherService{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

// Submit sends the selfie to the engine and returns its verdict. Failed
// validation yields ErrInvalidRequest; transport failures, timeouts and
// non-2xx responses yield ErrUpstreamUnavailable. The engine is never
// retried here.
func (ms *MatcherService) Submit(ctx context.Context, sub SelfieSubmission) (*MatchVerdict, error) {
	if sub.UserID == "" {
		return nil, fmt.Errorf("%w: user ID is required", ErrInvalidRequest)
	}
	if len(sub.Selfie) == 0 {
		return nil, fmt.Errorf("%w: no selfie uploaded", ErrInvalidRequest)
	}

	body, contentType, err := encodeSubmission(sub)
	if err != nil {
		return nil, fmt.Errorf("failed to encode selfie submission: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ms.BaseURL+"/process-selfie", body)
	if err != nil {
		return nil, fmt.Errorf("failed to build matcher request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := ms.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: matcher returned status %d", ErrUpstreamUnavailable, resp.StatusCode)
	}

	var verdict MatchVerdict
	if err := json.NewDecoder(resp.Body).Decode(&verdict); err != nil {
		return nil, fmt.Errorf("%w: failed to decode matcher response: %v", ErrUpstreamUnavailable, err)
	}
	return &verdict, nil
}

// encodeSubmission builds the multipart payload the engine expects: a
// "selfie" file part plus "user_id" and optional coordinate fields.
func encodeSubmission(sub SelfieSubmission) (io.Reader, string, error) {
	buf := &bytes.Buffer{}
	writer := multipart.NewWriter(buf)

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="selfie"; filename="selfie.jpg"`)
	contentType := sub.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header.Set("Content-Type", contentType)

	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(sub.Selfie); err != nil {
		return nil, "", err
	}

	if err := writer.WriteField("user_id", sub.UserID); err != nil {
		return nil, "", err
	}
	if sub.Latitude != "" && sub.Longitude != "" {
		if err := writer.WriteField("latitude", sub.Latitude); err != nil {
			return nil, "", err
		}
		if err := writer.WriteField("longitude", sub.Longitude); err != nil {
			return nil, "", err
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", err
	}
	return buf, writer.FormDataContentType(), nil
}
