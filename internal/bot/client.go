package bot

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/KlimSani4/hydrocalc/internal/calculator"
)

// ErrUpstreamUnavailable means the remote engine could not produce a result.
var ErrUpstreamUnavailable = errors.New("calculation api unavailable")

// Calculator computes a result, possibly over the network.
type Calculator interface {
	Calculate(ctx context.Context, req calculator.Request) (calculator.Result, error)
}

// RemoteCalculator calls POST {baseURL}/api/v1/calculate anonymously, so bot
// results never land in any account history.
type RemoteCalculator struct {
	baseURL string
	client  *http.Client
}

func NewRemoteCalculator(baseURL string, timeout time.Duration) *RemoteCalculator {
	return &RemoteCalculator{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

func (r *RemoteCalculator) Calculate(ctx context.Context, req calculator.Request) (calculator.Result, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return calculator.Result{}, fmt.Errorf("encode request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/api/v1/calculate", bytes.NewReader(body))
	if err != nil {
		return calculator.Result{}, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(httpReq)
	if err != nil {
		return calculator.Result{}, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))
		return calculator.Result{}, fmt.Errorf("%w: status %d", ErrUpstreamUnavailable, resp.StatusCode)
	}
	var result calculator.Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return calculator.Result{}, fmt.Errorf("%w: decode response: %v", ErrUpstreamUnavailable, err)
	}
	return result, nil
}

// LocalCalculator runs the shared formula in-process.
type LocalCalculator struct{}

func (LocalCalculator) Calculate(_ context.Context, req calculator.Request) (calculator.Result, error) {
	return calculator.Calculate(req)
}
