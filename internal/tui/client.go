package tui

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/chatjack/chatjack/internal/admin"
)

// apiClient polls the bot's admin API.
type apiClient struct {
	baseURL string
	http    *http.Client
}

func newAPIClient(baseURL string) *apiClient {
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		baseURL = "http://" + baseURL
	}
	return &apiClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 5 * time.Second},
	}
}

func (c *apiClient) fetchStatus() (admin.StatusResponse, error) {
	var status admin.StatusResponse
	return status, c.getJSON("/api/status", &status)
}

func (c *apiClient) fetchStats() (admin.StatsResponse, error) {
	var stats admin.StatsResponse
	return stats, c.getJSON("/api/stats", &stats)
}

func (c *apiClient) getJSON(path string, v any) error {
	resp, err := c.http.Get(c.baseURL + path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: status %d", path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(v)
}
