// Package ocr turns captured images into text.
package ocr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
)

const (
	DefaultVisionURL     = "https://vision.googleapis.com"
	annotatePath         = "/v1/images:annotate"
	defaultVisionTimeout = 60 * time.Second
	textDetection        = "TEXT_DETECTION"
)

const DefaultTesseractLanguage = "eng"

var (
	// ErrMissingAPIKey is returned when the client has no API key configured.
	ErrMissingAPIKey = errors.New("google vision api key is not set")
	// ErrTesseractUnavailable is returned when the binary was built without
	// the tesseract tag.
	ErrTesseractUnavailable = errors.New("tesseract support not compiled in (build with -tags tesseract)")
)

var dataURIPrefix = regexp.MustCompile(`^data:[^;,]*;base64,`)

// StripDataURI removes a data:<mime>;base64, prefix, leaving the bare base64
// payload. Strings without the prefix are returned unchanged.
func StripDataURI(s string) string {
	return dataURIPrefix.ReplaceAllString(s, "")
}

// annotate request/response types mirror the Cloud Vision REST API.
type annotateRequest struct {
	Requests []imageRequest `json:"requests"`
}

type imageRequest struct {
	Image    imageContent `json:"image"`
	Features []feature    `json:"features"`
}

type imageContent struct {
	Content string `json:"content"`
}

type feature struct {
	Type string `json:"type"`
}

type annotateResponse struct {
	Responses []struct {
		FullTextAnnotation *struct {
			Text string `json:"text"`
		} `json:"fullTextAnnotation"`
		Error *statusError `json:"error"`
	} `json:"responses"`
}

type statusError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

func (e *statusError) Error() string {
	return fmt.Sprintf("vision error %d (%s): %s", e.Code, e.Status, e.Message)
}

type errorEnvelope struct {
	Error *statusError `json:"error"`
}

// VisionClient calls the Google Cloud Vision TEXT_DETECTION endpoint.
type VisionClient struct {
	apiKey string
	client *resty.Client
}

// NewVisionClient creates a client. retries bounds the number of extra
// attempts made for transient failures (network errors, 429 and 5xx).
func NewVisionClient(apiKey, baseURL string, retries int, backoff time.Duration) *VisionClient {
	if baseURL == "" {
		baseURL = DefaultVisionURL
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(defaultVisionTimeout).
		SetHeader("Content-Type", "application/json").
		SetRetryCount(retries).
		SetRetryWaitTime(backoff).
		SetRetryMaxWaitTime(backoff * 8).
		AddRetryCondition(isTransient)

	return &VisionClient{apiKey: apiKey, client: client}
}

// isTransient decides retries by status whenever a response arrived, so an
// undecodable 200 body is not retried.
func isTransient(res *resty.Response, err error) bool {
	if err != nil && (res == nil || res.RawResponse == nil) {
		return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
	}
	code := res.StatusCode()
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

// Recognize returns the full text detected in image, which may be a data URI
// or bare base64. An image without text yields "" and no error.
func (c *VisionClient) Recognize(ctx context.Context, image string) (string, error) {
	if c.apiKey == "" {
		return "", ErrMissingAPIKey
	}

	body := annotateRequest{
		Requests: []imageRequest{{
			Image:    imageContent{Content: StripDataURI(image)},
			Features: []feature{{Type: textDetection}},
		}},
	}

	var result annotateResponse
	var apiErr errorEnvelope
	res, err := c.client.R().
		SetContext(ctx).
		SetQueryParam("key", c.apiKey).
		SetBody(body).
		SetResult(&result).
		SetError(&apiErr).
		ForceContentType("application/json").
		Post(annotatePath)
	if err != nil {
		if res != nil && res.RawResponse != nil && res.IsError() {
			return "", fmt.Errorf("vision request failed: status %d", res.StatusCode())
		}
		return "", fmt.Errorf("vision request failed: %w", err)
	}
	if res.IsError() {
		if apiErr.Error != nil {
			return "", apiErr.Error
		}
		return "", fmt.Errorf("vision request failed: status %d", res.StatusCode())
	}

	if len(result.Responses) == 0 {
		log.Debug().Msg("vision returned no responses")
		return "", nil
	}
	first := result.Responses[0]
	if first.Error != nil {
		return "", first.Error
	}
	if first.FullTextAnnotation == nil {
		log.Info().Msg("no text detected in image")
		return "", nil
	}

	log.Info().Int("textLength", len(first.FullTextAnnotation.Text)).Msg("vision text detection")
	return first.FullTextAnnotation.Text, nil
}
