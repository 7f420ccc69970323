package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jeanpaul/cookbook/internal/item"
)

const (
	DefaultBaseURL = "https://neal.fun"
	DefaultReferer = "https://neal.fun/infinite-craft/"

	// DefaultUserAgent is sent unless configured otherwise. Empty Options
	// leave Go's own User-Agent in place.
	DefaultUserAgent = "cookbook/0.1"

	pairPath     = "/api/infinite-craft/pair"
	maxBodyBytes = 1 << 20
)

// Options configures a Client. Zero values fall back to the public game.
type Options struct {
	BaseURL   string
	Referer   string
	UserAgent string
	Timeout   time.Duration // zero means no client-side timeout
	Logger    *zap.Logger
}

// Client calls the game's pair endpoint over HTTP.
type Client struct {
	baseURL   string
	referer   string
	userAgent string
	client    *http.Client
	log       *zap.Logger
}

var _ Combiner = (*Client)(nil)

func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Referer == "" {
		opts.Referer = DefaultReferer
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Client{
		baseURL:   strings.TrimRight(opts.BaseURL, "/"),
		referer:   opts.Referer,
		userAgent: opts.UserAgent,
		client:    &http.Client{Timeout: opts.Timeout},
		log:       opts.Logger.Named("oracle"),
	}
}

// pairURL substitutes the names as given; they are only escaped for transport.
func (c *Client) pairURL(first, second string) string {
	q := url.Values{}
	q.Set("first", first)
	q.Set("second", second)
	return c.baseURL + pairPath + "?" + q.Encode()
}

type pairResponse struct {
	Result *string `json:"result"`
	Emoji  *string `json:"emoji"`
	IsNew  *bool   `json:"isNew"`
}

// Combine asks the oracle what first and second make. It makes exactly one
// request.
func (c *Client) Combine(ctx context.Context, first, second string) Result {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.pairURL(first, second), nil)
	if err != nil {
		return Failed(&Failure{Kind: Network, Message: err.Error(), Err: err})
	}
	req.Header.Set("Referer", c.referer)
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return Failed(&Failure{Kind: Network, Message: friendlyError(err), Err: err})
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return Failed(&Failure{Kind: Network, Status: resp.StatusCode, Message: friendlyError(err), Err: err})
	}

	if resp.StatusCode != http.StatusOK {
		f := classifyStatus(resp.StatusCode, body)
		c.log.Debug("combine rejected",
			zap.String("first", first),
			zap.String("second", second),
			zap.Stringer("kind", f.Kind),
			zap.Int("status", resp.StatusCode))
		return Failed(f)
	}

	return c.parse(first, second, body)
}

func (c *Client) parse(first, second string, body []byte) Result {
	var pr pairResponse
	if err := json.Unmarshal(body, &pr); err != nil {
		return Failed(&Failure{
			Kind:    MalformedResponse,
			Status:  http.StatusOK,
			Message: fmt.Sprintf("cannot decode response: %v", err),
			Err:     err,
		})
	}
	if pr.Result == nil || *pr.Result == "" {
		return Failed(&Failure{Kind: MalformedResponse, Status: http.StatusOK, Message: `response has no "result"`})
	}
	if pr.IsNew == nil {
		return Failed(&Failure{Kind: MalformedResponse, Status: http.StatusOK, Message: `response has no "isNew"`})
	}

	if *pr.Result == item.Nothing {
		return Nothing()
	}

	emoji := ""
	if pr.Emoji != nil {
		emoji = *pr.Emoji
	}
	if emoji == "" {
		c.log.Warn("combination returned no emoji",
			zap.String("first", first),
			zap.String("second", second),
			zap.String("result", *pr.Result))
	}
	return Produced(*pr.Result, emoji, *pr.IsNew)
}
