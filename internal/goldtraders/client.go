// Package goldtraders extracts the Thai Gold Traders Association's official
// 96.5% bullion quote from the association homepage.
//
// The page is uncontrolled HTML carrying several tables of superficially
// similar numbers (bullion vs ornament, buy vs sell), so extraction runs in
// two stages: first narrow the whitespace-collapsed markup to the block under
// the association price heading, then capture each number anchored to its
// nearest preceding product and side label within that block. A spread
// plausibility check rejects captures that are syntactically valid but
// obviously wrong.
package goldtraders

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"goldwatch/internal/models"
)

// DefaultURL is the association homepage carrying the official price table.
const DefaultURL = "https://www.goldtraders.or.th/"

// The site serves a reduced page to non-browser agents, so requests identify
// as a desktop browser.
const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123 Safari/537.36"

// ErrParseFailed reports that the page was fetched but no plausible quote
// could be extracted: a label or number was missing, or the bid/ask pair
// failed the spread check. Callers should treat it as retryable and keep
// their last known quote; it is distinct from a transport failure.
var ErrParseFailed = errors.New("quote extraction failed")

var (
	whitespaceRe = regexp.MustCompile(`\s+`)

	// The search space is bounded by the association price heading and either
	// the next heading or the end of the price table, keeping unrelated
	// numbers elsewhere on the page out of scope.
	blockRe = regexp.MustCompile(`ราคาทองตามประกาศสมาคมค้าทองคำ.*?ราคาทองทุกชนิด|ราคาทองตามประกาศสมาคมค้าทองคำ.*?</table>`)

	// Prices are 2-3 integer digits, a comma, exactly 3 digits, and an
	// optional fraction (e.g. 51,900 or 51,900.00). Each is anchored to the
	// bullion label plus its side label so ornament rows cannot match.
	bidRe = regexp.MustCompile(`ทองคำแท่ง.*?รับซื้อ.*?(\d{2,3},\d{3}(?:\.\d+)?)`)
	askRe = regexp.MustCompile(`ทองคำแท่ง.*?ขายออก.*?(\d{2,3},\d{3}(?:\.\d+)?)`)
)

// Client fetches and parses the association page.
type Client struct {
	url        string
	httpClient *http.Client
}

// NewClient creates a goldtraders client. An empty url selects DefaultURL.
func NewClient(url string, timeout time.Duration) *Client {
	if url == "" {
		url = DefaultURL
	}
	return &Client{
		url: url,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// FetchQuote performs a single uncached fetch of the page and extracts the
// bullion quote. Transport problems are returned as ordinary errors; a page
// that fetched but yielded no plausible quote returns ErrParseFailed.
func (c *Client) FetchQuote(ctx context.Context) (*models.OfficialQuote, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", c.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", c.url, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	quote, err := Extract(string(body))
	if err != nil {
		return nil, err
	}
	quote.Updated = time.Now().Format("15:04:05")
	return quote, nil
}

// Extract pulls the official bullion bid/ask pair out of raw page markup.
// All whitespace is collapsed to single spaces first so the label/number
// patterns are insensitive to the page's formatting.
func Extract(html string) (*models.OfficialQuote, error) {
	clean := whitespaceRe.ReplaceAllString(html, " ")

	// Fall back to the whole page when the heading is missing; the anchored
	// number patterns still have to match for extraction to succeed.
	block := clean
	if m := blockRe.FindString(clean); m != "" {
		block = m
	}

	bid, ok := capturePrice(bidRe, block)
	if !ok {
		return nil, fmt.Errorf("%w: no buy price in block", ErrParseFailed)
	}
	ask, ok := capturePrice(askRe, block)
	if !ok {
		return nil, fmt.Errorf("%w: no sell price in block", ErrParseFailed)
	}

	quote := &models.OfficialQuote{Bid: bid, Ask: ask}
	if err := quote.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParseFailed, err)
	}
	return quote, nil
}

// capturePrice applies an anchored number pattern and parses the capture
// with thousands separators stripped.
func capturePrice(re *regexp.Regexp, block string) (float64, bool) {
	m := re.FindStringSubmatch(block)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}
