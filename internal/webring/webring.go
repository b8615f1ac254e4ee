// Package webring renders the overview-page banner linking to the
// neighboring members of a webring.
package webring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"text/template"
	"time"

	_ "embed"

	siteerrors "github.com/plutodev/plutogen/internal/errors"
)

//go:embed banner.html
var bannerTemplate string

// Member is one entry in the ring's member list.
type Member struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Client fetches the member list and renders the banner.
type Client struct {
	httpClient *http.Client
	dataURL    string
	siteURL    string
	tmpl       *template.Template
}

// NewClient creates a webring client. dataURL points at the ring's
// members.json, siteURL is our own entry in that list.
func NewClient(dataURL, siteURL string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		dataURL:    dataURL,
		siteURL:    siteURL,
		tmpl:       template.Must(template.New("banner").Parse(bannerTemplate)),
	}
}

// Banner fetches the member list and renders the banner HTML with
// links to the previous and next ring members. Neighbors wrap around
// the member list.
func (c *Client) Banner(ctx context.Context) (string, error) {
	members, err := c.fetchMembers(ctx)
	if err != nil {
		return "", err
	}

	self := -1
	for i, m := range members {
		if m.URL == c.siteURL {
			self = i
			break
		}
	}
	if self < 0 {
		return "", siteerrors.New(siteerrors.CategoryWebring, siteerrors.SeverityWarning,
			"site not found in webring member list").WithContext("site_url", c.siteURL)
	}

	n := len(members)
	data := struct {
		Prev        Member
		Next        Member
		MemberCount int
	}{
		Prev:        members[(self-1+n)%n],
		Next:        members[(self+1)%n],
		MemberCount: n,
	}

	var buf bytes.Buffer
	if err := c.tmpl.Execute(&buf, data); err != nil {
		return "", siteerrors.Wrap(err, siteerrors.CategoryWebring, siteerrors.SeverityWarning,
			"render webring banner")
	}
	return buf.String(), nil
}

func (c *Client) fetchMembers(ctx context.Context) ([]Member, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.dataURL, nil)
	if err != nil {
		return nil, siteerrors.Wrap(err, siteerrors.CategoryWebring, siteerrors.SeverityWarning,
			"build webring request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, siteerrors.Wrap(err, siteerrors.CategoryWebring, siteerrors.SeverityWarning,
			"fetch webring member list").WithContext("url", c.dataURL)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, siteerrors.New(siteerrors.CategoryWebring, siteerrors.SeverityWarning,
			fmt.Sprintf("webring member list returned status %d", resp.StatusCode)).
			WithContext("url", c.dataURL)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, siteerrors.Wrap(err, siteerrors.CategoryWebring, siteerrors.SeverityWarning,
			"read webring member list")
	}

	var members []Member
	if err := json.Unmarshal(body, &members); err != nil {
		return nil, siteerrors.Wrap(err, siteerrors.CategoryWebring, siteerrors.SeverityWarning,
			"parse webring member list")
	}
	if len(members) == 0 {
		return nil, siteerrors.New(siteerrors.CategoryWebring, siteerrors.SeverityWarning,
			"webring member list is empty")
	}
	return members, nil
}
