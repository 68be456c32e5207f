// Package fact fetches random trivia from uselessfacts.jsph.pl.
package fact

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"server-warden/internal/httpclient"
	"server-warden/internal/response"
)

var (
	ErrUpstream = errors.New("fact service error")
	ErrNetwork  = errors.New("fact service unreachable")
)

// Fact is one trivia item. Missing upstream fields are filled with defaults.
type Fact struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Source    string `json:"source"`
	Permalink string `json:"permalink"`
}

// ShortID is the first 8 characters of the id.
func (f Fact) ShortID() string {
	return response.Truncate(f.ID, 8)
}

// Client fetches facts.
type Client struct {
	http     *httpclient.Client
	url      string
	language string
}

// NewClient returns a Client for the random-fact endpoint at rawURL.
func NewClient(http *httpclient.Client, rawURL string) *Client {
	return &Client{http: http, url: rawURL, language: "en"}
}

// Random returns a random fact.
func (c *Client) Random(ctx context.Context) (*Fact, error) {
	var f Fact
	err := c.http.GetJSON(ctx, c.url, url.Values{"language": {c.language}}, &f)
	if err != nil {
		var se *httpclient.StatusError
		switch {
		case errors.Is(err, httpclient.ErrUnreachable):
			return nil, fmt.Errorf("%w: %w", ErrNetwork, err)
		case errors.As(err, &se), errors.Is(err, httpclient.ErrDecode):
			return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
		default:
			return nil, err
		}
	}
	if f.Text == "" {
		f.Text = "No fact found!"
	}
	if f.ID == "" {
		f.ID = "Unknown"
	}
	if f.Source == "" {
		f.Source = "Unknown"
	}
	return &f, nil
}

// Render builds the public fact embed.
func Render(f *Fact, now time.Time) response.Message {
	source := f.Source
	if f.Permalink != "" {
		source = fmt.Sprintf("[%s](%s)", f.Source, f.Permalink)
	}
	m := response.New(response.IconInfo, "Random Useless Fact", f.Text, response.Info).
		AddField("Source", source, true).
		AddField("Fact ID", "`"+f.ShortID()+"`", true)
	m.Footer = "Did you know? • Powered by uselessfacts.jsph.pl"
	m.Timestamp = now
	return m
}

// UserMessage turns a Random error into the private reply shown to the user.
func UserMessage(err error) response.Message {
	switch {
	case errors.Is(err, ErrUpstream):
		return response.Plain(response.IconNo, "Failed to fetch a fact. Please try again later.")
	case errors.Is(err, ErrNetwork):
		return response.Plain(response.IconNo, "Network error. Couldn't reach the fact API.")
	default:
		return response.Plain(response.IconNo, "An error occurred while fetching your fact.")
	}
}
