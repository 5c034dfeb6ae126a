package content

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/julianstephens/lessfeed/internal/logger"
	"github.com/julianstephens/lessfeed/internal/models"
)

const defaultHTTPTimeout = 15 * time.Second

// SupabaseSource reads published cards from a Supabase PostgREST endpoint.
type SupabaseSource struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

type SupabaseOption func(*SupabaseSource)

// WithHTTPClient replaces the default client.
func WithHTTPClient(c *http.Client) SupabaseOption {
	return func(s *SupabaseSource) { s.client = c }
}

func NewSupabaseSource(baseURL, apiKey string, opts ...SupabaseOption) (*SupabaseSource, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("supabase url missing")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("invalid supabase url: %w", err)
	}
	s := &SupabaseSource{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: defaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// FetchCards implements Source.
func (s *SupabaseSource) FetchCards(ctx context.Context, lang models.Lang) ([]models.Card, error) {
	q := url.Values{}
	q.Set("select", "*,card_translations(*)")
	q.Set("is_published", "eq.true")

	var raw []RawCard
	if err := s.do(ctx, http.MethodGet, "/rest/v1/cards?"+q.Encode(), nil, &raw); err != nil {
		return nil, err
	}

	cards := BuildDeck(raw, lang, StripHTML)
	logger.Debug("Fetched cards", "lang", lang.Code(), "received", len(raw), "valid", len(cards))
	if len(cards) == 0 && len(raw) > 0 {
		logger.Warn("Cards found but none passed validation", "lang", lang.Code(), "received", len(raw))
	}
	return cards, nil
}

// RPC calls a PostgREST function with params encoded as JSON.
func (s *SupabaseSource) RPC(ctx context.Context, function string, params any) error {
	body, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("failed to encode %s params: %w", function, err)
	}
	return s.do(ctx, http.MethodPost, "/rest/v1/rpc/"+function, body, nil)
}

func (s *SupabaseSource) do(ctx context.Context, method, path string, body []byte, dst any) error {
	var reader io.Reader
	if body != nil {
		reader = strings.NewReader(string(body))
	}
	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
		req.Header.Set("apikey", s.apiKey)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("request to %s failed: status %d, body: %s", path, resp.StatusCode, strings.TrimSpace(string(data)))
	}
	if dst == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
