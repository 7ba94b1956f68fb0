// Package revenue looks up monthly recurring revenue per end user from
// the external user-revenue registry. The registry is read-only from
// this service's point of view; the merge engine consults it to keep a
// feedback item's cached total MRR current.
package revenue

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type Registry interface {
	// MonthlyRevenue returns MRR per user id. Users unknown to the
	// registry are simply absent from the result.
	MonthlyRevenue(userIDs []string) (map[string]float64, error)
}

// HTTPRegistry queries the revenue service over HTTP.
type HTTPRegistry struct {
	BaseURL string
	Client  *http.Client
}

func NewHTTPRegistry(baseURL string) *HTTPRegistry {
	return &HTTPRegistry{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (r *HTTPRegistry) MonthlyRevenue(userIDs []string) (map[string]float64, error) {
	if len(userIDs) == 0 {
		return map[string]float64{}, nil
	}

	endpoint := fmt.Sprintf("%s/v1/mrr?users=%s", strings.TrimSuffix(r.BaseURL, "/"), url.QueryEscape(strings.Join(userIDs, ",")))

	resp, err := r.Client.Get(endpoint)

	if err != nil {
		return nil, fmt.Errorf("revenue registry: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("revenue registry: unexpected status %d", resp.StatusCode)
	}

	var result map[string]float64

	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("revenue registry: %w", err)
	}

	return result, nil
}

// StaticRegistry serves fixed values; used in development and tests.
type StaticRegistry struct {
	MRR map[string]float64
}

func (r *StaticRegistry) MonthlyRevenue(userIDs []string) (map[string]float64, error) {
	result := make(map[string]float64, len(userIDs))

	for _, id := range userIDs {
		if mrr, ok := r.MRR[id]; ok {
			result[id] = mrr
		}
	}

	return result, nil
}

// NopRegistry reports no revenue for anyone.
type NopRegistry struct{}

func (NopRegistry) MonthlyRevenue([]string) (map[string]float64, error) {
	return map[string]float64{}, nil
}
