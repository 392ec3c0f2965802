package services

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/go-resty/resty/v2"
)

// RankResult is one entry from the OpenRank engagement graph.
type RankResult struct {
	Fid        int64   `json:"fid"`
	Rank       int64   `json:"rank"`
	Score      float64 `json:"score"`
	Percentile float64 `json:"percentile"`
}

type openRankResponse struct {
	Result []RankResult `json:"result"`
}

// RankProvider fetches an identity's standing in the reputation graph.
// A (nil, nil) return means the identity is not in the graph.
type RankProvider interface {
	GetRank(ctx context.Context, fid int64) (*RankResult, error)
}

// OpenRankClient queries the hosted OpenRank API. The timeout is a hard
// bound: the reputation gate fails open on any error, so there is no
// retry here.
type OpenRankClient struct {
	client *resty.Client
}

const openRankTimeout = 5 * time.Second

func NewOpenRankClient() *OpenRankClient {
	baseURL := os.Getenv("OPENRANK_API_URL")
	if baseURL == "" {
		baseURL = "https://graph.cast.k3l.io"
		log.Printf("⚠️  OPENRANK_API_URL not set, using default: %s", baseURL)
	}
	return NewOpenRankClientWithURL(baseURL)
}

func NewOpenRankClientWithURL(baseURL string) *OpenRankClient {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(openRankTimeout).
		SetHeader("Content-Type", "application/json")
	return &OpenRankClient{client: client}
}

// GetRank looks up a single FID. Absence from the graph (empty result,
// or a zero/missing rank) is reported as (nil, nil), not an error.
func (c *OpenRankClient) GetRank(ctx context.Context, fid int64) (*RankResult, error) {
	var out openRankResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody([]int64{fid}).
		SetResult(&out).
		Post("/scores/global/engagement/fids")
	if err != nil {
		return nil, fmt.Errorf("openrank request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("openrank returned status %d", resp.StatusCode())
	}
	for _, r := range out.Result {
		if r.Fid != fid {
			continue
		}
		// Rank 0 means the field was missing upstream, which the graph
		// uses for unranked identities. Treat as absent, not rank-0.
		if r.Rank == 0 {
			return nil, nil
		}
		res := r
		return &res, nil
	}
	return nil, nil
}
