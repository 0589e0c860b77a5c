package applemusic

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/sukalov/uta/internal/logger"
	"github.com/sukalov/uta/internal/utils/e"
)

var (
	indexScriptRegex = regexp.MustCompile(`/assets/index[^"'\s]*?\.js`)
	jwtRegex         = regexp.MustCompile(`"(eyJh[^"]+)"`)
)

// DiscoverToken extracts the developer token the web player ships in its
// index bundle: the browse page names the bundle, the bundle embeds the JWT.
func (c *Client) DiscoverToken(ctx context.Context) (string, error) {
	const op = "discover developer token"

	pageURL := c.cfg.WebBaseURL + "/us/browse"
	logger.Debug(fmt.Sprintf("DiscoverToken: fetching page %s", pageURL))

	page, err := c.fetch(ctx, op, pageURL, nil, false)
	if err != nil {
		return "", err
	}

	scriptURL, err := c.indexScriptURL(page)
	if err != nil {
		logger.Error(fmt.Sprintf("DiscoverToken: %v", err))
		return "", e.New(e.ErrAuth, op, err)
	}
	logger.Debug(fmt.Sprintf("DiscoverToken: fetching script %s", scriptURL))

	script, err := c.fetch(ctx, op, scriptURL, nil, false)
	if err != nil {
		return "", err
	}

	match := jwtRegex.FindSubmatch(script)
	if match == nil {
		logger.Error(fmt.Sprintf("DiscoverToken: no token in %s", scriptURL))
		return "", e.Newf(e.ErrAuth, op, "no developer token in %s", scriptURL)
	}

	logger.Success("DiscoverToken: found developer token")
	return string(match[1]), nil
}

// indexScriptURL finds the index bundle among the page's module scripts,
// falling back to a plain text search of the page.
func (c *Client) indexScriptURL(page []byte) (string, error) {
	base, err := url.Parse(c.cfg.WebBaseURL + "/")
	if err != nil {
		return "", fmt.Errorf("invalid web base url: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	var src string
	doc.Find("script[src]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		v, _ := s.Attr("src")
		if indexScriptRegex.MatchString(v) {
			src = v
			return false
		}
		return true
	})
	if src == "" {
		src = string(indexScriptRegex.Find(page))
	}
	if src == "" {
		return "", fmt.Errorf("could not find the index script on the browse page")
	}

	ref, err := url.Parse(strings.TrimSpace(src))
	if err != nil {
		return "", fmt.Errorf("invalid script url %q: %w", src, err)
	}
	return base.ResolveReference(ref).String(), nil
}
