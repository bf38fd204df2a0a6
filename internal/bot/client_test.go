package bot

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/KlimSani4/hydrocalc/internal/calculator"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRemoteCalculator(t *testing.T) {
	srv, calls := calcServer(t, http.StatusOK)
	remote := NewRemoteCalculator(srv.URL, time.Second)

	req := calculator.Request{JuniorCount: 10, Season: calculator.Warm, Activity: calculator.Normal}
	got, err := remote.Calculate(context.Background(), req)
	require.NoError(t, err)

	want, err := calculator.Calculate(req)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, 20.8, got.TotalWater)
	assert.Equal(t, int32(1), calls.Load())
}

func TestRemoteCalculator_Unavailable(t *testing.T) {
	req := calculator.Request{Season: calculator.Cold, Activity: calculator.Normal}

	failing, _ := calcServer(t, http.StatusBadGateway)
	_, err := NewRemoteCalculator(failing.URL, time.Second).Calculate(context.Background(), req)
	assert.ErrorIs(t, err, ErrUpstreamUnavailable)

	garbage := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("<html>"))
	}))
	defer garbage.Close()
	_, err = NewRemoteCalculator(garbage.URL, time.Second).Calculate(context.Background(), req)
	assert.ErrorIs(t, err, ErrUpstreamUnavailable)

	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer slow.Close()
	_, err = NewRemoteCalculator(slow.URL, 50*time.Millisecond).Calculate(context.Background(), req)
	assert.ErrorIs(t, err, ErrUpstreamUnavailable)
}
