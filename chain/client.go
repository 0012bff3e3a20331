// File: chain/client.go
package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/decred/slog"

	"github.com/lguibr/fujipong/game"
	"github.com/lguibr/fujipong/store"
	"github.com/lguibr/fujipong/utils"
)

// Client talks to the score relay. It implements game.Submitter.
type Client struct {
	baseURL string
	http    *http.Client
	log     slog.Logger
}

// NewClient creates a relay client. A nil httpClient uses one with a 30 s
// timeout.
func NewClient(baseURL string, httpClient *http.Client, log slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		log:     utils.OrDisabled(log),
	}
}

// SubmitRequest is the body of POST /api/submit-score.
type SubmitRequest struct {
	Winner   *string `json:"winner"`
	Loser    *string `json:"loser"`
	Score    *string `json:"score"`
	Duration *int    `json:"duration"`
}

// BlockResponse is the body of GET /api/block.
type BlockResponse struct {
	BlockNumber int64 `json:"blockNumber"`
}

// ScoresResponse is the body of GET /api/scores.
type ScoresResponse struct {
	Scores []store.ScoreRecord `json:"scores"`
}

type errorBody struct {
	Error string `json:"error"`
}

// SubmitScore records a finished match. A relay that answers with an error
// status yields an unsuccessful response, not an error; errors are reserved
// for transport failures.
func (c *Client) SubmitScore(ctx context.Context, result game.MatchResult) (game.SubmitResponse, error) {
	body, err := json.Marshal(SubmitRequest{
		Winner:   &result.Winner,
		Loser:    &result.Loser,
		Score:    &result.Score,
		Duration: &result.Duration,
	})
	if err != nil {
		return game.SubmitResponse{}, fmt.Errorf("failed to encode score: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/submit-score", bytes.NewReader(body))
	if err != nil {
		return game.SubmitResponse{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return game.SubmitResponse{}, fmt.Errorf("failed to submit score: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return game.SubmitResponse{}, fmt.Errorf("failed to read relay response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var e errorBody
		if json.Unmarshal(data, &e) != nil || e.Error == "" {
			e.Error = resp.Status
		}
		c.log.Warnf("Relay rejected score %s (%s vs %s): %s", result.Score, result.Winner, result.Loser, e.Error)
		return game.SubmitResponse{Success: false, Error: e.Error}, nil
	}

	var out game.SubmitResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return game.SubmitResponse{}, fmt.Errorf("failed to decode relay response: %w", err)
	}
	c.log.Debugf("Score %s recorded as %s", result.Score, out.TxHash)
	return out, nil
}

// LatestBlock returns the relay's current ledger height.
func (c *Client) LatestBlock(ctx context.Context) (int64, error) {
	var out BlockResponse
	if err := c.getJSON(ctx, "/api/block", nil, &out); err != nil {
		return 0, err
	}
	return out.BlockNumber, nil
}

// ScoreHistory returns the most recent scores, newest first.
func (c *Client) ScoreHistory(ctx context.Context, limit int, blockRange int64) ([]store.ScoreRecord, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("range", strconv.FormatInt(blockRange, 10))
	var out ScoresResponse
	if err := c.getJSON(ctx, "/api/scores", q, &out); err != nil {
		return nil, err
	}
	return out.Scores, nil
}

func (c *Client) getJSON(ctx context.Context, path string, q url.Values, out interface{}) error {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var e errorBody
		_ = json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&e)
		if e.Error == "" {
			e.Error = resp.Status
		}
		return fmt.Errorf("GET %s: %s", path, e.Error)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("GET %s: failed to decode: %w", path, err)
	}
	return nil
}
