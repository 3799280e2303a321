// Package locator holds the doctor-finder collaborator: a thin HTTP
// client used by the finder handler, and the locator service itself,
// which fronts the Google Places text-search API.
package locator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/suyashnema0707/MedGraph-Navigator/models"
)

// Finder is the port the finder handler depends on. Empty results are a
// valid success, not an error.
type Finder interface {
	Find(ctx context.Context, specialty, location string) ([]models.Doctor, error)
}

// Client calls the locator service over HTTP JSON.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a locator client for the given service base URL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type findRequest struct {
	Specialty string `json:"specialty"`
	Location  string `json:"location"`
}

// Find posts the search to the locator service and decodes the listings.
func (c *Client) Find(ctx context.Context, specialty, location string) ([]models.Doctor, error) {
	body, err := json.Marshal(findRequest{Specialty: specialty, Location: location})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/find_doctors", bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("locator unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("locator status %d: %s", resp.StatusCode, bytes.TrimSpace(raw))
	}

	var doctors []models.Doctor
	if err := json.NewDecoder(resp.Body).Decode(&doctors); err != nil {
		return nil, fmt.Errorf("decode listings: %w", err)
	}
	return doctors, nil
}
