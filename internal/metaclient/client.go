// Copyright 2025 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package metaclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/yigfs/fsclient/internal/errno"
	"github.com/yigfs/fsclient/internal/logger"
)

const (
	defaultRetries    = 3
	defaultHTTPTimeout = 5 * time.Second
)

// Config configures a Client. Region/Bucket/Zone/Machine are echoed on
// every request the spec's wire format requires them on.
type Config struct {
	BaseURL string
	Region  string
	Bucket  string
	Zone    string
	Machine string

	// Retries is how many times the transport retries a failed
	// request, with no backoff between attempts (spec §5). Zero means
	// use the default of 3, matching the source client's HttpClient::new(3).
	Retries int

	// HTTPClient lets callers override the transport (e.g. in tests);
	// a sane default with a bounded timeout is used otherwise.
	HTTPClient *http.Client
}

// Client is a typed RPC wrapper over the metadata service's HTTP/JSON
// API. It is safe for concurrent use: it holds no mutable state beyond
// its immutable configuration.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// NewClient builds a Client from cfg, filling in defaults for unset
// fields.
func NewClient(cfg Config) *Client {
	if cfg.Retries <= 0 {
		cfg.Retries = defaultRetries
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &Client{cfg: cfg, httpClient: cfg.HTTPClient}
}

// doJSON marshals req, sends it to path via method (GET may carry a
// body per spec §6), retries up to cfg.Retries times with no backoff
// on transport failure, and unmarshals the response body into resp.
// It returns the HTTP status code alongside any transport error.
func (c *Client) doJSON(ctx context.Context, method, path string, req, resp any) (int, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return 0, fmt.Errorf("marshal request for %s: %w", path, err)
	}

	var status int
	noWait := retry.BackoffFunc(func() (time.Duration, bool) { return 0, false })
	backoff := retry.WithMaxRetries(uint64(c.cfg.Retries), noWait)
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		httpReq, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, bytes.NewReader(body))
		if err != nil {
			return err
		}
		httpReq.Header.Set("Content-Type", "application/json")

		httpResp, err := c.httpClient.Do(httpReq)
		if err != nil {
			logger.Warnf("metaclient: request to %s failed, will retry: %v", path, err)
			return retry.RetryableError(err)
		}
		defer httpResp.Body.Close()

		status = httpResp.StatusCode
		respBody, err := io.ReadAll(httpResp.Body)
		if err != nil {
			return retry.RetryableError(err)
		}

		if status >= 300 {
			// Not retryable: a non-2xx status is a definitive answer
			// from the metadata service, not a transport hiccup.
			return fmt.Errorf("metaclient: %s returned status %d: %s", path, status, string(respBody))
		}

		if resp != nil && len(respBody) > 0 {
			if err := json.Unmarshal(respBody, resp); err != nil {
				return fmt.Errorf("decode response from %s: %w", path, err)
			}
		}
		return nil
	})

	return status, err
}

// errnoFor turns the outcome of doJSON into an Errno per spec §6:
// HTTP status >= 300 is always Eintr; otherwise the business
// err_code in the body is translated (0 success, 40003 no entries,
// anything else Eintr).
func errnoFor(status int, transportErr error, code int) errno.Errno {
	if transportErr != nil {
		return errno.Eintr
	}
	if status >= 300 {
		return errno.Eintr
	}
	return errno.FromMetaErrCode(code)
}
