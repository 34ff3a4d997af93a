package github

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/go-github/v68/github"
	"golang.org/x/oauth2"

	"policygate/internal/log"
)

type Client struct {
	Client *github.Client
	HTTP   *http.Client
}

type options struct {
	baseURL string
}

type Option func(*options)

// WithBaseURL points the client at a GitHub Enterprise or test server.
func WithBaseURL(raw string) Option {
	return func(o *options) {
		o.baseURL = raw
	}
}

// loggingRoundTripper emits one debug line per request and response
// (including latency). Lines only appear with --verbose.
type loggingRoundTripper struct {
	base http.RoundTripper
}

func (t *loggingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	log.Debug("github api request", "method", req.Method, "url", req.URL.String())
	resp, err := t.base.RoundTrip(req)
	dur := time.Since(start).Truncate(time.Millisecond)
	if err != nil {
		log.Debug("github api error", "duration", dur, "error", err)
	} else {
		log.Debug("github api response", "status", resp.StatusCode, "duration", dur)
	}
	return resp, err
}

func NewClient(ctx context.Context, token string, opts ...Option) (*Client, error) {
	if ctx == nil {
		return nil, fmt.Errorf("github client: ctx is nil")
	}

	o := &options{}
	for _, apply := range opts {
		if apply != nil {
			apply(o)
		}
	}

	var transport http.RoundTripper = &loggingRoundTripper{base: http.DefaultTransport}
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		transport = &oauth2.Transport{Source: ts, Base: transport}
	}
	tc := &http.Client{Transport: transport}

	gh := github.NewClient(tc)
	if o.baseURL != "" {
		var err error
		gh, err = gh.WithEnterpriseURLs(o.baseURL, o.baseURL)
		if err != nil {
			return nil, fmt.Errorf("github client: invalid base URL: %w", err)
		}
	}

	return &Client{
		Client: gh,
		HTTP:   tc,
	}, nil
}

// OpenDependabotAlerts lists every open Dependabot alert of a repository,
// following cursor and page pagination.
func (c *Client) OpenDependabotAlerts(ctx context.Context, owner, repo string) ([]*github.DependabotAlert, error) {
	opts := &github.ListAlertsOptions{
		State:             github.Ptr("open"),
		ListCursorOptions: github.ListCursorOptions{PerPage: 100},
	}

	var all []*github.DependabotAlert
	for {
		alerts, resp, err := c.Client.Dependabot.ListRepoAlerts(ctx, owner, repo, opts)
		if err != nil {
			return nil, fmt.Errorf("list dependabot alerts for %s/%s: %w", owner, repo, err)
		}
		all = append(all, alerts...)
		if resp == nil {
			break
		}
		switch {
		case resp.After != "":
			opts.ListCursorOptions.After = resp.After
		case resp.NextPage != 0:
			opts.ListOptions.Page = resp.NextPage
		default:
			return all, nil
		}
	}
	return all, nil
}
