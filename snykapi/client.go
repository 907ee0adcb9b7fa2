package snykapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/juju/clock"
	"github.com/juju/retry"
)

// DefaultAPIVersion is the REST API version sent with every request unless
// the operator overrides it.
const DefaultAPIVersion = "2024-10-15"

// DefaultPageLimit is the page size requested when listing organizations.
const DefaultPageLimit = 100

// maxErrorBody bounds how much of an error response body is kept for the
// error message.
const maxErrorBody = 2048

// Organization is a single deletable unit as returned by the listing
// endpoint. Identity is ID; Name is not guaranteed unique.
type Organization struct {
	ID         string
	Name       string
	GroupID    string
	Attributes map[string]any
}

// SelfInfo describes the principal behind the configured token.
type SelfInfo struct {
	Email string
	Name  string
}

// ListBackoff bounds how long a listing call waits out rate limiting
// before giving up. The server's Retry-After hint takes precedence over the
// doubling schedule when present.
type ListBackoff struct {
	InitialDelay time.Duration
	MaxDelay     time.Duration
	WaitBudget   time.Duration
}

// DefaultListBackoff returns the listing backoff used when the config file
// does not tune it.
func DefaultListBackoff() ListBackoff {
	return ListBackoff{
		InitialDelay: time.Second,
		MaxDelay:     30 * time.Second,
		WaitBudget:   2 * time.Minute,
	}
}

// Config carries everything a Client needs. HTTPClient, Clock, Logger,
// APIVersion, PageLimit and Backoff are optional and defaulted by New.
type Config struct {
	BaseURL    string
	Token      string
	APIVersion string
	PageLimit  int
	HTTPClient *http.Client
	Clock      clock.Clock
	Backoff    ListBackoff
	Logger     *slog.Logger
}

// Client calls the Snyk management API. It is safe for sequential use by a
// single run; it keeps no mutable state beyond the injected http.Client.
type Client struct {
	baseURL    string
	token      string
	apiVersion string
	pageLimit  int
	httpClient *http.Client
	clock      clock.Clock
	backoff    ListBackoff
	logger     *slog.Logger
}

func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("base URL must be set")
	}
	if cfg.Token == "" {
		return nil, errors.New("token must be set")
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = DefaultAPIVersion
	}
	if cfg.PageLimit <= 0 {
		cfg.PageLimit = DefaultPageLimit
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.WallClock
	}
	if cfg.Backoff == (ListBackoff{}) {
		cfg.Backoff = DefaultListBackoff()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		token:      cfg.Token,
		apiVersion: cfg.APIVersion,
		pageLimit:  cfg.PageLimit,
		httpClient: cfg.HTTPClient,
		clock:      cfg.Clock,
		backoff:    cfg.Backoff,
		logger:     cfg.Logger,
	}, nil
}

// VerifySelf checks the token against /rest/self and returns the
// authenticated principal. A failure here means no run should start.
func (c *Client) VerifySelf(ctx context.Context) (SelfInfo, error) {
	const op = "verify token"

	var doc selfDocument
	if err := c.getJSON(ctx, op, c.baseURL+"/rest/self?"+c.versionQuery(), &doc); err != nil {
		return SelfInfo{}, err
	}

	email, _ := doc.Data.Attributes["email"].(string)
	name, _ := doc.Data.Attributes["name"].(string)
	return SelfInfo{Email: email, Name: name}, nil
}

// ListOrganizations returns every organization of the group, following
// pagination cursors in server order. Organizations whose group id does not
// match exactly are dropped; group scoping is a safety boundary independent
// of any exclusion list. Rate-limited pages are retried within the
// configured wait budget.
func (c *Client) ListOrganizations(ctx context.Context, groupID string) ([]Organization, error) {
	const op = "list organizations"

	if groupID == "" {
		return nil, errors.New("group id must be set")
	}

	var orgs []Organization
	next := fmt.Sprintf("%s/rest/groups/%s/orgs?%s&limit=%d",
		c.baseURL, url.PathEscape(groupID), c.versionQuery(), c.pageLimit)

	for page := 1; next != ""; page++ {
		c.logger.Info("fetching organizations page", "page", page, "group_id", groupID)

		doc, err := c.getOrgsPage(ctx, op, next)
		if err != nil {
			return nil, err
		}

		for _, res := range doc.Data {
			org, err := decodeOrganization(op, res)
			if err != nil {
				return nil, err
			}
			if org.GroupID != groupID {
				c.logger.Warn("dropping organization outside requested group",
					"org_id", org.ID, "org_group_id", org.GroupID)
				continue
			}
			orgs = append(orgs, org)
		}

		next = c.resolveNextURL(doc.Links.Next)
	}

	c.logger.Info("listed organizations", "group_id", groupID, "total", len(orgs))
	return orgs, nil
}

// DeleteOrganization performs a single delete attempt against the v1
// endpoint. Retrying is the caller's responsibility so that attempt
// accounting stays with the execution policy.
func (c *Client) DeleteOrganization(ctx context.Context, orgID string) error {
	const op = "delete organization"

	if orgID == "" {
		return errors.New("organization id must be set")
	}

	deleteURL := c.baseURL + "/v1/org/" + url.PathEscape(orgID)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, deleteURL, nil)
	if err != nil {
		return errors.Wrap(err, "building delete request")
	}
	req.Header.Set("Authorization", "token "+c.token)
	req.Header.Set("Accept", "*/*")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &Error{Kind: KindNetwork, Op: op, Message: err.Error(), cause: err}
	}
	defer resp.Body.Close()

	// 204 No Content is a success status for DELETE as well.
	if resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	return c.errorFromResponse(op, resp)
}

// getOrgsPage fetches one listing page, waiting out rate limiting with the
// server's Retry-After hint when present, otherwise a jittered doubling
// schedule, bounded by the configured wait budget.
func (c *Client) getOrgsPage(ctx context.Context, op, pageURL string) (organizationDocument, error) {
	var doc organizationDocument
	var lastErr error
	var retryAfter time.Duration

	backoff := retry.ExpBackoff(c.backoff.InitialDelay, c.backoff.MaxDelay, 2.0, true)

	err := retry.Call(retry.CallArgs{
		Func: func() error {
			err := c.getJSON(ctx, op, pageURL, &doc)
			if err != nil {
				lastErr = err
				var apiErr *Error
				if errors.As(err, &apiErr) {
					retryAfter = apiErr.RetryAfter
				}
			}
			return err
		},
		IsFatalError: func(err error) bool {
			return KindOf(err) != KindRateLimited
		},
		NotifyFunc: func(err error, attempt int) {
			c.logger.Warn("rate limited while listing, backing off",
				"attempt", attempt, "retry_after", retryAfter.String())
		},
		BackoffFunc: func(delay time.Duration, attempt int) time.Duration {
			if retryAfter > 0 {
				return retryAfter
			}
			return backoff(delay, attempt)
		},
		Attempts:    retry.UnlimitedAttempts,
		Delay:       c.backoff.InitialDelay,
		MaxDuration: c.backoff.WaitBudget,
		Clock:       c.clock,
		Stop:        ctx.Done(),
	})
	if err != nil {
		if lastErr != nil && (retry.IsDurationExceeded(err) || retry.IsRetryStopped(err)) {
			err = lastErr
		}
		return organizationDocument{}, err
	}

	return doc, nil
}

func (c *Client) getJSON(ctx context.Context, op, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return errors.Wrap(err, "building request")
	}
	req.Header.Set("Authorization", "token "+c.token)
	req.Header.Set("Content-Type", "application/vnd.api+json")
	req.Header.Set("Accept", "*/*")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &Error{Kind: KindNetwork, Op: op, Message: err.Error(), cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.errorFromResponse(op, resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &Error{Kind: KindServerError, Op: op,
			Message: "decoding response: " + err.Error(), cause: err}
	}

	return nil
}

func (c *Client) errorFromResponse(op string, resp *http.Response) *Error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	apiErr := &Error{
		Kind:       kindForStatus(resp.StatusCode),
		Op:         op,
		StatusCode: resp.StatusCode,
		Message:    strings.TrimSpace(string(body)),
	}
	if apiErr.Kind == KindRateLimited {
		apiErr.RetryAfter = parseRetryAfter(resp.Header.Get("Retry-After"), c.clock.Now())
	}
	return apiErr
}

// resolveNextURL normalizes the pagination cursor: the server may return an
// absolute URL, an absolute path, or a bare path.
func (c *Client) resolveNextURL(next string) string {
	switch {
	case next == "":
		return ""
	case strings.HasPrefix(next, "http://"), strings.HasPrefix(next, "https://"):
		return next
	case strings.HasPrefix(next, "/"):
		return c.baseURL + next
	default:
		return c.baseURL + "/" + next
	}
}

func (c *Client) versionQuery() string {
	return "version=" + url.QueryEscape(c.apiVersion)
}

// parseRetryAfter accepts both forms of the header: delay seconds and an
// HTTP date.
func parseRetryAfter(value string, now time.Time) time.Duration {
	if value == "" {
		return 0
	}
	if secs, err := strconv.Atoi(value); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(value); err == nil {
		if d := at.Sub(now); d > 0 {
			return d
		}
	}
	return 0
}

type organizationDocument struct {
	Data  []organizationResource `json:"data"`
	Links documentLinks          `json:"links"`
}

type organizationResource struct {
	ID         string         `json:"id"`
	Attributes map[string]any `json:"attributes"`
}

type documentLinks struct {
	Next string `json:"next"`
}

type selfDocument struct {
	Data struct {
		Attributes map[string]any `json:"attributes"`
	} `json:"data"`
}

// decodeOrganization converts one listing resource into an Organization,
// failing as a server error when the shape does not match the documented
// schema rather than propagating an untyped structure.
func decodeOrganization(op string, res organizationResource) (Organization, error) {
	if res.ID == "" {
		return Organization{}, &Error{Kind: KindServerError, Op: op,
			Message: "organization resource missing id"}
	}

	name, ok := res.Attributes["name"].(string)
	if !ok {
		return Organization{}, &Error{Kind: KindServerError, Op: op,
			Message: fmt.Sprintf("organization %s missing name attribute", res.ID)}
	}

	groupID, _ := res.Attributes["group_id"].(string)

	return Organization{
		ID:         res.ID,
		Name:       name,
		GroupID:    groupID,
		Attributes: res.Attributes,
	}, nil
}
