package rng

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// HTTPSource calls out to an external quantum-RNG HTTP service, POSTing a
// {num_qubits, shots} request body and decoding a Sample-shaped JSON
// response. Grounded on the request/response shape of the IBM Quantum
// hardware integration this replaces, generalized to any HTTP backend.
type HTTPSource struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

// NewHTTPSource builds an HTTPSource that posts to endpoint, authenticating
// with apiKey via a bearer Authorization header when non-empty.
func NewHTTPSource(endpoint, apiKey string) *HTTPSource {
	return &HTTPSource{
		endpoint: endpoint,
		apiKey:   apiKey,
		client:   &http.Client{},
	}
}

// GetQuantumRandom implements QuantumSource.
func (s *HTTPSource) GetQuantumRandom(ctx context.Context, numQubits, shots int) (Sample, error) {
	if ctx.Err() != nil {
		return Sample{}, ctx.Err()
	}

	payload, err := json.Marshal(map[string]any{
		"num_qubits": numQubits,
		"shots":      shots,
	})
	if err != nil {
		return Sample{}, fmt.Errorf("encoding quantum random request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(payload))
	if err != nil {
		return Sample{}, fmt.Errorf("building quantum random request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return Sample{}, fmt.Errorf("calling quantum random service: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Sample{}, fmt.Errorf("reading quantum random response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return Sample{}, fmt.Errorf("quantum random service returned %d: %s", resp.StatusCode, string(body))
	}

	var sample Sample
	if err := json.Unmarshal(body, &sample); err != nil {
		return Sample{}, fmt.Errorf("decoding quantum random response: %w", err)
	}
	return sample, nil
}
