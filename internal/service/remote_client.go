package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"freight-insure/pkg/middleware"

	"go.uber.org/zap"
)

// ErrUnauthorized is returned when a collaborator rejects the operator
// token with 401 or 403; the operator has to sign in again.
var ErrUnauthorized = errors.New("operator token rejected")

// RemoteError is a business failure reported inside the response envelope.
type RemoteError struct {
	Code int
	Msg  string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote error %d: %s", e.Code, e.Msg)
}

// envelope wraps every response of the OCR and order services. A non-zero
// code is a failure even on HTTP 200.
type envelope struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

// remoteClient posts JSON to a freight backend service.
type remoteClient struct {
	baseURL      string
	serviceToken string
	httpClient   *http.Client
	logger       *zap.Logger
}

func newRemoteClient(baseURL, serviceToken string, timeout time.Duration, logger *zap.Logger) *remoteClient {
	return &remoteClient{
		baseURL:      strings.TrimRight(baseURL, "/"),
		serviceToken: serviceToken,
		httpClient:   &http.Client{Timeout: timeout},
		logger:       logger,
	}
}

// post sends body to path and decodes the envelope data into out.
func (c *remoteClient) post(ctx context.Context, path string, body, out any) error {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token := c.token(ctx); token != "" {
		req.Header.Set("Authorization", middleware.AuthScheme+" "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		c.logger.Warn("Remote service rejected operator token",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
		)
		return ErrUnauthorized
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	if env.Code != 0 {
		return &RemoteError{Code: env.Code, Msg: env.Msg}
	}

	if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("failed to decode response data: %w", err)
	}
	return nil
}

func (c *remoteClient) token(ctx context.Context) string {
	if token := middleware.TokenFromContext(ctx); token != "" {
		return token
	}
	return c.serviceToken
}
