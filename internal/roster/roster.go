package roster

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"dorm-allocation-backend/config"
	"dorm-allocation-backend/internal/store"
)

// Service periodically pulls the housing facilities feed and keeps the
// dormitory and bed catalog in sync. Bed statuses stay owned by the
// allocation engine; the sync only touches metadata.
type Service struct {
	cfg    *config.Config
	store  store.Store
	client *http.Client
}

// NewService creates and initializes a new roster sync service.
func NewService(cfg *config.Config, store store.Store) *Service {
	var transport http.RoundTripper = &http.Transport{}
	if cfg.Roster.HTTPProxy != "" {
		proxyURL, err := url.Parse(cfg.Roster.HTTPProxy)
		if err != nil {
			log.Printf("Warning: Invalid proxy URL %q: %v. Roster sync will not use a proxy.", cfg.Roster.HTTPProxy, err)
		} else {
			transport = &http.Transport{Proxy: http.ProxyURL(proxyURL)}
		}
	}

	return &Service{
		cfg:   cfg,
		store: store,
		client: &http.Client{
			Transport: transport,
			Timeout:   30 * time.Second,
		},
	}
}

// Run starts the sync process in a loop.
func (s *Service) Run(ctx context.Context) {
	if !s.cfg.Roster.Enabled {
		log.Println("Roster sync is disabled. Not starting.")
		return
	}
	log.Println("Starting roster sync service...")

	s.SyncOnce(ctx)

	timer := time.NewTimer(s.cfg.Roster.Interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Roster sync service shutting down.")
			return
		case <-timer.C:
			s.SyncOnce(ctx)
			timer.Reset(s.cfg.Roster.Interval)
		}
	}
}

// SyncOnce performs a single round of feed fetching and calls the store
// to persist dormitory and bed metadata.
func (s *Service) SyncOnce(ctx context.Context) {
	log.Println("Executing roster sync cycle...")

	var allItems []store.FacilityItem
	total := 1
	pageSize := s.cfg.Roster.Request.PageSize
	var fetchErr error
	for page := 1; (page-1)*pageSize < total; page++ {
		resp, err := s.fetchPage(ctx, page)
		if err != nil {
			log.Printf("Error fetching page %d: %v", page, err)
			fetchErr = err
			break
		}
		if resp.Data.Total == 0 || len(resp.Data.Items) == 0 {
			break
		}
		total = resp.Data.Total
		allItems = append(allItems, resp.Data.Items...)
		log.Printf("Fetched page %d/%d, total items so far: %d", page, (total/pageSize)+1, len(allItems))
	}

	if fetchErr != nil && len(allItems) == 0 {
		log.Println("Roster sync cycle aborted due to fetch error with no items retrieved. Facility data will not be updated.")
		return
	}

	if len(allItems) == 0 {
		log.Println("Roster sync cycle finished: no items to process.")
		return
	}

	if err := s.store.UpsertDormsAndBeds(ctx, allItems); err != nil {
		log.Printf("Error processing dormitories and beds: %v", err)
		return
	}

	log.Println("Roster sync cycle finished.")
}

// fetchPage fetches a single page of facility data from the upstream feed.
func (s *Service) fetchPage(ctx context.Context, page int) (*FeedResponse, error) {
	payload := make(map[string]any)
	for k, v := range s.cfg.Roster.Request.Payload {
		payload[k] = v
	}
	payload["page"] = page
	payload["pageSize"] = s.cfg.Roster.Request.PageSize

	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.Roster.Request.URL, bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	for key, value := range s.cfg.Roster.Request.Headers {
		req.Header.Set(key, value)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("received non-200 status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var feedResp FeedResponse
	if err := json.Unmarshal(body, &feedResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal feed response: %w", err)
	}

	if feedResp.Code != 0 {
		return nil, fmt.Errorf("feed returned non-zero application code: %d", feedResp.Code)
	}

	return &feedResp, nil
}
