// Package drawresults reads the latest published results from the public numbers feed.
package drawresults

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/powerpix/powerpix-api/internal/domain"
)

const (
	DefaultBaseURL = "https://www.powerball.com"
	recentPath     = "/api/v1/numbers/powerball/recent"
	defaultTimeout = 10 * time.Second
)

var ErrMalformedResult = errors.New("malformed draw result")

type Config struct {
	BaseURL string
	Timeout time.Duration
}

type OfficialResult struct {
	Date    string `json:"date"`
	White   []int  `json:"white"`
	Special []int  `json:"special"`
}

// Numbers validates the result as official numbers of a round.
func (r OfficialResult) Numbers() (domain.OfficialNumbers, error) {
	return domain.NewOfficialNumbers(r.White, r.Special)
}

type feedItem struct {
	WinningNumbers string `json:"field_winning_numbers"`
	Powerball      string `json:"field_powerball"`
	DrawDate       string `json:"field_draw_date"`
}

type Client struct {
	http *resty.Client
}

func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	return &Client{
		http: resty.New().
			SetBaseURL(cfg.BaseURL).
			SetTimeout(cfg.Timeout).
			SetHeader("Accept", "application/json"),
	}
}

// LatestOfficialResult returns the most recent result, or nil when the feed is empty.
func (c *Client) LatestOfficialResult(ctx context.Context) (*OfficialResult, error) {
	var items []feedItem
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("_format", "json").
		SetResult(&items).
		Get(recentPath)
	if err != nil {
		return nil, fmt.Errorf("c.http.Get -> %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("results feed responded %d", resp.StatusCode())
	}
	if len(items) == 0 {
		return nil, nil
	}

	res, err := parseItem(items[0])
	if err != nil {
		return nil, err
	}

	return &res, nil
}

// parseItem accepts "11, 23, 45, 67, 89" or "11 23 45 67 89 12"; when six numbers are
// given the last one is the special number.
func parseItem(it feedItem) (OfficialResult, error) {
	fields := strings.FieldsFunc(it.WinningNumbers, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})

	nums := make([]int, 0, len(fields))
	for _, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			return OfficialResult{}, fmt.Errorf("%w: %q", ErrMalformedResult, it.WinningNumbers)
		}
		nums = append(nums, n)
	}

	var special int
	switch {
	case len(nums) > domain.OfficialWhiteCount:
		special = nums[len(nums)-1]
		nums = nums[:domain.OfficialWhiteCount]
	case len(nums) == domain.OfficialWhiteCount:
		n, err := strconv.Atoi(strings.TrimSpace(it.Powerball))
		if err != nil {
			return OfficialResult{}, fmt.Errorf("%w: special %q", ErrMalformedResult, it.Powerball)
		}
		special = n
	default:
		return OfficialResult{}, fmt.Errorf("%w: %q", ErrMalformedResult, it.WinningNumbers)
	}
	sort.Ints(nums)

	res := OfficialResult{Date: it.DrawDate, White: nums, Special: []int{special}}
	if _, err := res.Numbers(); err != nil {
		return OfficialResult{}, fmt.Errorf("%w: %w", ErrMalformedResult, err)
	}

	return res, nil
}
