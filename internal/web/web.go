// Package web turns spoken site names and queries into URLs and opens them
// in the default browser.
package web

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/cli/browser"
)

var ErrEmpty = errors.New("nothing to open")

const searchBase = "https://www.google.com/search?q="

var sites = map[string]string{
	"youtube":   "https://www.youtube.com",
	"reddit":    "https://www.reddit.com",
	"instagram": "https://www.instagram.com",
	"google":    "https://www.google.com",
	"github":    "https://github.com",
	"chatgpt":   "https://chat.openai.com",
	"gpt":       "https://chat.openai.com",
	"gemini":    "https://gemini.google.com",
	"amazon":    "https://www.amazon.com",
	"netflix":   "https://www.netflix.com",
	"twitter":   "https://www.x.com",
	"x":         "https://www.x.com",
	"facebook":  "https://www.facebook.com",
	"wikipedia": "https://www.wikipedia.org",
}

// WebsiteURL maps a spoken site name to a URL. Known sites come from a fixed
// table; anything else gets ".com" when it has no dot.
func WebsiteURL(name string) (string, error) {
	key := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), " ", ""))
	if key == "" {
		return "", ErrEmpty
	}
	if u, ok := sites[key]; ok {
		return u, nil
	}

	key = strings.TrimPrefix(strings.TrimPrefix(key, "https://"), "http://")
	if !strings.Contains(key, ".") {
		key += ".com"
	}
	return "https://" + key, nil
}

// SearchURL builds a Google search URL for query.
func SearchURL(query string) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", ErrEmpty
	}
	return searchBase + url.QueryEscape(query), nil
}

// Opener opens URLs in the user's browser.
type Opener struct {
	open func(string) error
}

// NewOpener uses open, or the system browser when open is nil.
func NewOpener(open func(string) error) *Opener {
	if open == nil {
		open = browser.OpenURL
	}
	return &Opener{open: open}
}

// OpenURL opens an arbitrary URL. It also serves as the handler for
// steam:// and other protocol URLs.
func (o *Opener) OpenURL(u string) error {
	return o.open(u)
}

func (o *Opener) OpenWebsite(name string) (string, error) {
	u, err := WebsiteURL(name)
	if err != nil {
		return "", err
	}
	if err := o.open(u); err != nil {
		return u, fmt.Errorf("open %s: %w", u, err)
	}
	return u, nil
}

func (o *Opener) Search(query string) (string, error) {
	u, err := SearchURL(query)
	if err != nil {
		return "", err
	}
	if err := o.open(u); err != nil {
		return u, fmt.Errorf("open %s: %w", u, err)
	}
	return u, nil
}
