// Package upstream talks to the torrent index and the tracker stats service.
package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"

	"torrentfront/internal/metrics"
	"torrentfront/internal/telemetry"
)

const (
	defaultTimeout = 10 * time.Second
	maxBodyBytes   = 4 << 20
	maxErrorBytes  = 1024
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Service string
	Code    int
	Status  string
	Body    string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s HTTP %s", e.Service, e.Status)
	}
	return fmt.Sprintf("%s HTTP %s: %s", e.Service, e.Status, e.Body)
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == code
}

func newHTTPClient(c *http.Client, timeout time.Duration) *http.Client {
	if c != nil {
		return c
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return telemetry.HTTPClient(timeout)
}

// doJSON sends req and decodes a 2xx JSON body into out. out may be nil.
func doJSON(ctx context.Context, hc *http.Client, service, op string, req *http.Request, out any) (err error) {
	start := time.Now()
	defer func() {
		status := "ok"
		if err != nil {
			status = "error"
		}
		metrics.UpstreamRequestsTotal.WithLabelValues(service, op, status).Inc()
		metrics.UpstreamRequestDuration.WithLabelValues(service, op).Observe(time.Since(start).Seconds())
	}()

	req = req.WithContext(ctx)
	req.Header.Set("Accept", "application/json")

	resp, err := hc.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s %s", service, op)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBytes))
		return &StatusError{
			Service: service,
			Code:    resp.StatusCode,
			Status:  resp.Status,
			Body:    strings.TrimSpace(string(body)),
		}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(out); err != nil {
		return errors.Wrapf(err, "%s %s: decode response", service, op)
	}
	return nil
}
