package geo

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bright-dela/alx-project-nexus/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/41.66.1.1", r.URL.Path)
		assert.Contains(t, r.URL.Query().Get("fields"), "countryCode")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"success","country":"Ghana","countryCode":"GH","city":"Accra","regionName":"Greater Accra","lat":5.6037,"lon":-0.187}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", time.Second, slog.Default())
	loc := c.Lookup(context.Background(), "41.66.1.1")

	assert.Equal(t, "Ghana", loc.Country)
	assert.Equal(t, "GH", loc.CountryCode)
	assert.Equal(t, "Accra", loc.City)
	assert.Equal(t, "Greater Accra", loc.Region)
	require.NotNil(t, loc.Latitude)
	require.NotNil(t, loc.Longitude)
	assert.InDelta(t, 5.6037, *loc.Latitude, 1e-9)
	assert.InDelta(t, -0.187, *loc.Longitude, 1e-9)
}

func TestLookup_LocalAddressesSkipNetwork(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second, slog.Default())
	for _, ip := range []string{"127.0.0.1", "localhost", "::1"} {
		loc := c.Lookup(context.Background(), ip)
		assert.Equal(t, LocalLocation, loc, ip)
		assert.Nil(t, loc.Latitude)
	}
	assert.Zero(t, calls.Load())
}

func TestLookup_Degrades(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"fail status", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"status":"fail","message":"private range"}`))
		}},
		{"http error", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}},
		{"bad json", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{not json`))
		}},
		{"slow", func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(200 * time.Millisecond)
			w.Write([]byte(`{"status":"success","country":"Ghana"}`))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			c := NewClient(srv.URL, 50*time.Millisecond, slog.Default())
			assert.Equal(t, models.Location{}, c.Lookup(context.Background(), "8.8.8.8"))
		})
	}
}

func TestLookup_EmptyIP(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", time.Second, slog.Default())
	assert.Equal(t, models.Location{}, c.Lookup(context.Background(), ""))
}
