package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/farm-weather-alerts/internal/common"
)

const postgrestSelect = "id,selected_language,state,village,preferred_crop,fcm_token,updated_at"

var errNoBackend = errors.New("postgrest backend url or service key is not configured")

// PostgRESTStore reads and writes user_profiles through a Supabase REST
// endpoint using the service-role key.
type PostgRESTStore struct {
	baseURL    string
	serviceKey string
	client     *http.Client
	circuit    *gobreaker.CircuitBreaker
	now        func() time.Time
}

// NewPostgRESTStore creates a store for the project at baseURL
// (e.g. https://xyz.supabase.co).
func NewPostgRESTStore(client *http.Client, baseURL, serviceKey string) *PostgRESTStore {
	return &PostgRESTStore{
		baseURL:    strings.TrimRight(baseURL, "/"),
		serviceKey: serviceKey,
		client:     client,
		circuit:    common.NewBreaker("postgrest"),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Get returns the profile stored under id.
func (s *PostgRESTStore) Get(ctx context.Context, id string) (Profile, error) {
	values := url.Values{}
	values.Set("select", postgrestSelect)
	values.Set("id", "eq."+id)
	values.Set("limit", "1")

	var rows []Profile
	if err := s.do(ctx, http.MethodGet, values, nil, &rows); err != nil {
		return Profile{}, fmt.Errorf("get profile %s: %w", id, err)
	}
	if len(rows) == 0 {
		return Profile{}, ErrNotFound
	}
	return rows[0], nil
}

// ListAlertable returns every profile with a village, ordered by id.
func (s *PostgRESTStore) ListAlertable(ctx context.Context) ([]Profile, error) {
	values := url.Values{}
	values.Set("select", postgrestSelect)
	values.Set("village", "not.is.null")
	values.Set("order", "id.asc")

	var rows []Profile
	if err := s.do(ctx, http.MethodGet, values, nil, &rows); err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}

	result := rows[:0]
	for _, p := range rows {
		if p.HasVillage() {
			result = append(result, p)
		}
	}
	return result, nil
}

// Upsert posts p with merge-duplicates resolution; omitted (nil) columns
// are left untouched by the backend.
func (s *PostgRESTStore) Upsert(ctx context.Context, p Profile) error {
	p.UpdatedAt = s.now()
	body, err := json.Marshal([]Profile{p})
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}

	values := url.Values{}
	values.Set("on_conflict", "id")
	if err := s.do(ctx, http.MethodPost, values, body, nil); err != nil {
		return fmt.Errorf("upsert profile %s: %w", p.ID, err)
	}
	return nil
}

func (s *PostgRESTStore) do(ctx context.Context, method string, values url.Values, body []byte, out any) error {
	if s.baseURL == "" || s.serviceKey == "" {
		return errNoBackend
	}

	endpoint := s.baseURL + "/rest/v1/user_profiles?" + values.Encode()
	req, err := http.NewRequestWithContext(ctx, method, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("apikey", s.serviceKey)
	req.Header.Set("Authorization", "Bearer "+s.serviceKey)
	req.Header.Set("Accept", "application/json")
	if method == http.MethodPost {
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Prefer", "resolution=merge-duplicates,return=minimal")
	}

	resp, err := common.DoRequest(ctx, s.client, s.circuit, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode postgrest: %v", common.ErrUpstreamUnavailable, err)
	}
	return nil
}
