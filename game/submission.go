// File: game/submission.go
package game

import (
	"context"
	"fmt"
	"time"

	"github.com/lguibr/fujipong/utils"
)

// MatchResult is what gets recorded for a finished match.
type MatchResult struct {
	Winner   string `json:"winner" msgpack:"winner"`
	Loser    string `json:"loser" msgpack:"loser"`
	Score    string `json:"score" msgpack:"score"`
	Duration int    `json:"duration" msgpack:"duration"` // Whole seconds of play
}

// SubmitResponse is the recording service's answer.
type SubmitResponse struct {
	Success bool   `json:"success"`
	TxHash  string `json:"txHash,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Submitter records a match result. Implementations must honor ctx.
type Submitter interface {
	SubmitScore(ctx context.Context, result MatchResult) (SubmitResponse, error)
}

// SubmitterFunc adapts a function to Submitter.
type SubmitterFunc func(ctx context.Context, result MatchResult) (SubmitResponse, error)

func (f SubmitterFunc) SubmitScore(ctx context.Context, result MatchResult) (SubmitResponse, error) {
	return f(ctx, result)
}

// Notification is the transient message shown after a submission settles.
// TxHash is empty when recording failed.
type Notification struct {
	Success     bool      `json:"success" msgpack:"success"`
	TxHash      string    `json:"txHash,omitempty" msgpack:"txHash,omitempty"`
	ExplorerURL string    `json:"explorerUrl,omitempty" msgpack:"explorerUrl,omitempty"`
	ExpiresAt   time.Time `json:"expiresAt" msgpack:"expiresAt"`
}

// ExplorerURL links a transaction hash to the block explorer.
func ExplorerURL(txHash string) string {
	if txHash == "" {
		return ""
	}
	return utils.ExplorerTxURL + txHash
}

// submissionOutcome travels from the detached submit goroutine back to the
// session loop.
type submissionOutcome struct {
	matchID  string
	result   MatchResult
	response SubmitResponse
	err      error
}

func (o submissionOutcome) succeeded() bool {
	return o.err == nil && o.response.Success && o.response.TxHash != ""
}

func formatScore(score [utils.MaxPlayers]int) string {
	return fmt.Sprintf("%d-%d", score[utils.LeftIndex], score[utils.RightIndex])
}

// displayName resolves a slot to the name recorded for it.
func displayName(mode Mode, names [utils.MaxPlayers]string, slot int) string {
	if slot == utils.RightIndex && mode == ModeVersusAI {
		return utils.AIName
	}
	if names[slot] != "" {
		return names[slot]
	}
	if slot == utils.LeftIndex {
		return utils.DefaultPlayer1Name
	}
	return utils.DefaultPlayer2Name
}

// buildMatchResult assembles the record for a match won by winner.
func buildMatchResult(mode Mode, names [utils.MaxPlayers]string, m *MatchState, winner int, now time.Time) MatchResult {
	duration := int(now.Sub(m.StartedAt) / time.Second)
	if duration < 0 {
		duration = 0
	}
	return MatchResult{
		Winner:   displayName(mode, names, winner),
		Loser:    displayName(mode, names, 1-winner),
		Score:    m.ScoreString(),
		Duration: duration,
	}
}
