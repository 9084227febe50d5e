package clients

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"cpusched/domain"
	"cpusched/helpers"

	"go.uber.org/zap"
)

// HTTPClient represents a job source served over HTTP(S)
type HTTPClient struct {
	httpLogger *zap.Logger
	baseURL    string
	client     *http.Client
}

// NewHTTPClient returns HTTPClient; a nil client uses a default one
func NewHTTPClient(baseURL string, client *http.Client, logger *zap.Logger) *HTTPClient {
	if client == nil {
		client = &http.Client{}
	}
	return &HTTPClient{
		httpLogger: logger,
		baseURL:    baseURL,
		client:     client,
	}
}

// APIRequest executes HTTP request and returns the response body, failing on non 2xx statuses.
// The caller closes the body.
func APIRequest(ctx context.Context, baseURL, method string, params url.Values, logger *zap.Logger, client *http.Client) (io.ReadCloser, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		logger.Error("failed to parse url", zap.Error(err))
		return nil, err
	}
	if len(params) > 0 {
		u.RawQuery = params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), nil)
	if err != nil {
		logger.Error("failed to create new request", zap.Error(err))
		return nil, err
	}
	req.Header.Set("Accept", "text/plain")
	resp, err := client.Do(req)
	if err != nil {
		logger.Error("failed to send HTTP request", zap.Error(err))
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		logger.Error("unexpected HTTP status", zap.Int("status_code", resp.StatusCode), zap.String("url", u.String()))
		return nil, fmt.Errorf("%s %s: unexpected status %d", method, u.String(), resp.StatusCode)
	}
	return resp.Body, nil
}

// Name returns the source URL
func (h *HTTPClient) Name() string {
	return h.baseURL
}

// Stream fetches the job list and sends its lines
func (h *HTTPClient) Stream(ctx context.Context, lines chan<- domain.JobDescriptor) error {
	body, err := APIRequest(ctx, h.baseURL, http.MethodGet, nil, h.httpLogger, h.client)
	if err != nil {
		return err
	}
	defer body.Close()
	return helpers.StreamLines(ctx, body, lines)
}
