package avito

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	defaultBaseURL = "https://api.avito.ru"

	requestRetries   = 3
	retryBaseDelay   = time.Second
	rateLimitBackoff = 2 * time.Second
)

// Client клиент API Авито для операций с бронированиями и объявлениями.
// Повторяет запросы при сетевых ошибках и откатывается по экспоненте на 429.
type Client struct {
	baseURL   string
	accountID int64
	tokens    TokenProvider
	hc        *http.Client
	logger    zerolog.Logger

	cache    *redis.Client
	cacheTTL time.Duration
}

func NewClient(baseURL string, accountID int64, tokens TokenProvider, logger zerolog.Logger) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL:   baseURL,
		accountID: accountID,
		tokens:    tokens,
		hc:        &http.Client{Timeout: 30 * time.Second},
		logger:    logger.With().Str("component", "avito_client").Logger(),
	}
}

// UseRedisCache включает кеширование ответов (детали объявлений) в Redis.
func (c *Client) UseRedisCache(rdb *redis.Client, ttl time.Duration) {
	c.cache = rdb
	c.cacheTTL = ttl
}

// GetItemBookings список бронирований объявления за период. Даты в формате
// YYYY-MM-DD, withUnpaid включает неоплаченные брони.
func (c *Client) GetItemBookings(ctx context.Context, itemID int64, dateStart, dateEnd string, withUnpaid bool) ([]Booking, error) {
	endpoint := fmt.Sprintf("/realty/v1/accounts/%d/items/%d/bookings", c.accountID, itemID)
	params := url.Values{}
	params.Set("date_start", dateStart)
	params.Set("date_end", dateEnd)
	params.Set("with_unpaid", strconv.FormatBool(withUnpaid))

	var resp struct {
		Bookings []Booking `json:"bookings"`
	}
	if err := c.doRequest(ctx, http.MethodGet, endpoint, params, nil, &resp); err != nil {
		return nil, fmt.Errorf("get item bookings for %d: %w", itemID, err)
	}
	return resp.Bookings, nil
}

// CreateManualBooking закрывает диапазон дат ручной бронью (type=manual).
func (c *Client) CreateManualBooking(ctx context.Context, itemID int64, dateStart, dateEnd, comment, source string) error {
	endpoint := fmt.Sprintf("/core/v1/accounts/%d/items/%d/bookings", c.accountID, itemID)
	payload := bookingsPayload{
		Bookings: []bookingEntry{{
			DateStart: dateStart,
			DateEnd:   dateEnd,
			Type:      "manual",
			Comment:   comment,
		}},
		Source: source,
	}
	if err := c.doRequest(ctx, http.MethodPost, endpoint, nil, payload, nil); err != nil {
		return fmt.Errorf("create manual booking for %d: %w", itemID, err)
	}
	return nil
}

// UpdateItemAvailability помечает диапазон дат открытым или закрытым.
func (c *Client) UpdateItemAvailability(ctx context.Context, itemID int64, dateStart, dateEnd string, open bool, source string) error {
	openFlag := 0
	if open {
		openFlag = 1
	}
	payload := availabilityPayload{
		ItemID:    itemID,
		Intervals: []intervalEntry{{DateStart: dateStart, DateEnd: dateEnd, Open: openFlag}},
		Source:    source,
	}
	if err := c.doRequest(ctx, http.MethodPost, "/realty/v1/items/intervals", nil, payload, nil); err != nil {
		return fmt.Errorf("update availability for %d: %w", itemID, err)
	}
	return nil
}

// GetItemDetails детали объявления. При включенном кеше ответ живёт в Redis.
func (c *Client) GetItemDetails(ctx context.Context, itemID int64) (*ItemDetails, error) {
	cacheKey := fmt.Sprintf("avito:item:%d", itemID)
	if c.cache != nil {
		if data, err := c.cache.Get(ctx, cacheKey).Bytes(); err == nil {
			var cached ItemDetails
			if json.Unmarshal(data, &cached) == nil {
				return &cached, nil
			}
		}
	}

	endpoint := fmt.Sprintf("/core/v1/accounts/%d/items/%d/", c.accountID, itemID)
	var details ItemDetails
	if err := c.doRequest(ctx, http.MethodGet, endpoint, nil, nil, &details); err != nil {
		return nil, fmt.Errorf("get item details for %d: %w", itemID, err)
	}

	if c.cache != nil {
		if data, err := json.Marshal(details); err == nil {
			c.cache.Set(ctx, cacheKey, data, c.cacheTTL)
		}
	}
	return &details, nil
}

// GetAllUserItems все объявления аккаунта (постранично).
func (c *Client) GetAllUserItems(ctx context.Context) ([]Item, error) {
	var all []Item
	for page := 1; ; page++ {
		params := url.Values{}
		params.Set("per_page", "100")
		params.Set("page", strconv.Itoa(page))

		var resp struct {
			Resources []Item `json:"resources"`
		}
		if err := c.doRequest(ctx, http.MethodGet, "/core/v1/items", params, nil, &resp); err != nil {
			return nil, fmt.Errorf("get user items page %d: %w", page, err)
		}
		all = append(all, resp.Resources...)
		if len(resp.Resources) < 100 {
			break
		}
	}
	return all, nil
}

func (c *Client) doRequest(ctx context.Context, method, endpoint string, params url.Values, body, out any) error {
	reqURL := c.baseURL + endpoint
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	var bodyBytes []byte
	if body != nil {
		var err error
		bodyBytes, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
	}

	var lastErr error
	for attempt := 0; attempt < requestRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(retryBaseDelay * time.Duration(attempt)):
			}
		}

		token, err := c.tokens.Token(ctx)
		if err != nil {
			return fmt.Errorf("obtain token: %w", err)
		}

		var reader io.Reader
		if bodyBytes != nil {
			reader = bytes.NewReader(bodyBytes)
		}
		req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+token)
		if bodyBytes != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.hc.Do(req)
		if err != nil {
			lastErr = err
			c.logger.Warn().Err(err).Str("url", reqURL).Int("attempt", attempt+1).Msg("request failed, retrying")
			continue
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			backoff := rateLimitBackoff * time.Duration(1<<attempt)
			c.logger.Warn().Str("url", reqURL).Int("attempt", attempt+1).Dur("backoff", backoff).Msg("rate limit hit")
			lastErr = fmt.Errorf("rate limited: %s", reqURL)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			continue
		}

		if resp.StatusCode >= 400 {
			return fmt.Errorf("avito api %s %s: status %d: %s", method, endpoint, resp.StatusCode, truncate(respBody, 512))
		}

		if out != nil && len(respBody) > 0 {
			if err := json.Unmarshal(respBody, out); err != nil {
				return fmt.Errorf("decode response from %s: %w", endpoint, err)
			}
		}
		return nil
	}

	return fmt.Errorf("request to %s failed after %d attempts: %w", reqURL, requestRetries, lastErr)
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
