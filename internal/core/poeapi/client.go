// Package poeapi fetches character snapshots from the public Path of Exile
// character window endpoint. All traffic is gated by the rate governor; the
// package maps transport and HTTP outcomes onto the closed core error
// taxonomy so callers never inspect raw status codes.
package poeapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mufasadb/poe-level-tracker/internal/core"
	"github.com/mufasadb/poe-level-tracker/internal/core/engine"
)

const (
	// DefaultBaseURL is the anonymous character listing endpoint.
	DefaultBaseURL = "https://www.pathofexile.com/character-window/get-characters"
	// DefaultUserAgent identifies this tracker to the remote service.
	DefaultUserAgent = "poe-level-tracker/1.0"

	defaultTimeout = 30 * time.Second

	headerRateLimitRules = "X-Rate-Limit-Ip"
	headerRateLimitState = "X-Rate-Limit-Ip-State"
)

// Client fetches characters for an account.
type Client struct {
	Governor   *engine.Governor
	HTTPClient *http.Client
	BaseURL    string
	UserAgent  string
}

// NewClient builds a client around a governor with a bounded network wait.
func NewClient(governor *engine.Governor) *Client {
	return &Client{
		Governor:   governor,
		HTTPClient: &http.Client{Timeout: defaultTimeout},
		BaseURL:    DefaultBaseURL,
		UserAgent:  DefaultUserAgent,
	}
}

type characterPayload struct {
	Name   *string `json:"name"`
	Realm  string  `json:"realm"`
	Class  *string `json:"class"`
	League *string `json:"league"`
	Level  *int    `json:"level"`
}

// FetchCharacters returns every character on the account. It waits on the
// governor before issuing the request and forwards quota headers from every
// response, including non-2xx ones.
func (c *Client) FetchCharacters(ctx context.Context, account string, realm core.Realm) ([]core.CharacterSnapshot, error) {
	if c == nil || c.Governor == nil {
		return nil, errors.New("character client is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if err := core.ValidateAccount(account); err != nil {
		return nil, core.NewRemoteError(core.KindAccountNotFound, account, err)
	}
	if realm == "" {
		realm = core.RealmPC
	}

	if err := c.Governor.WaitUntilReady(ctx); err != nil {
		return nil, core.NewRemoteError(core.KindTransportFailure, account, err)
	}

	requestURL, err := c.buildURL(account, realm)
	if err != nil {
		return nil, core.NewRemoteError(core.KindTransportFailure, account, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, core.NewRemoteError(core.KindTransportFailure, account, err)
	}
	req.Header.Set("User-Agent", c.userAgent())
	req.Header.Set("Accept", "application/json")

	c.Governor.RecordRequest()

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, core.NewRemoteError(core.KindTransportFailure, account, err)
	}
	defer resp.Body.Close() // nolint:errcheck // best-effort cleanup on HTTP response body

	c.Governor.ObserveQuotaHeaders(
		resp.Header.Get(headerRateLimitRules),
		resp.Header.Get(headerRateLimitState),
	)

	switch resp.StatusCode {
	case http.StatusOK:
		return c.decodeCharacters(resp, account)
	case http.StatusForbidden:
		return nil, core.NewRemoteError(core.KindPrivateProfile, account, nil)
	case http.StatusNotFound:
		return nil, core.NewRemoteError(core.KindAccountNotFound, account, nil)
	case http.StatusTooManyRequests:
		retryAfter := retryAfterHeader(resp)
		c.Governor.OnRateLimited(retryAfter)
		return nil, &core.RemoteError{
			Kind:       core.KindRateLimited,
			Account:    account,
			StatusCode: resp.StatusCode,
			RetryAfter: retryAfter,
		}
	default:
		return nil, &core.RemoteError{
			Kind:       core.KindUnexpectedStatus,
			Account:    account,
			StatusCode: resp.StatusCode,
		}
	}
}

func (c *Client) decodeCharacters(resp *http.Response, account string) ([]core.CharacterSnapshot, error) {
	var payload []characterPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, core.NewRemoteError(core.KindMalformedPayload, account, err)
	}

	snapshots := make([]core.CharacterSnapshot, 0, len(payload))
	for _, record := range payload {
		// Records missing required fields are skipped, not fatal.
		if record.Name == nil || record.Class == nil || record.League == nil || record.Level == nil {
			continue
		}
		realm, err := core.ParseRealm(record.Realm)
		if err != nil {
			realm = core.RealmPC
		}
		snapshots = append(snapshots, core.CharacterSnapshot{
			Name:   *record.Name,
			Realm:  realm,
			Class:  *record.Class,
			League: *record.League,
			Level:  *record.Level,
		})
	}

	return snapshots, nil
}

func (c *Client) buildURL(account string, realm core.Realm) (string, error) {
	base := c.BaseURL
	if strings.TrimSpace(base) == "" {
		base = DefaultBaseURL
	}

	parsed, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid base url: %w", err)
	}

	query := parsed.Query()
	query.Set("accountName", account)
	query.Set("realm", string(realm))
	parsed.RawQuery = query.Encode()

	return parsed.String(), nil
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: defaultTimeout}
}

func (c *Client) userAgent() string {
	if strings.TrimSpace(c.UserAgent) != "" {
		return c.UserAgent
	}
	return DefaultUserAgent
}

// retryAfterHeader parses Retry-After as integer seconds or an HTTP date.
func retryAfterHeader(resp *http.Response) time.Duration {
	value := resp.Header.Get("Retry-After")
	if value == "" {
		return 0
	}

	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}
	if parsed, err := http.ParseTime(value); err == nil {
		return time.Until(parsed)
	}

	return 0
}
