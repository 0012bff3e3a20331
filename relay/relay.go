// File: relay/relay.go
package relay

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"math"
	"strconv"

	"github.com/decred/slog"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"github.com/lguibr/fujipong/store"
	"github.com/lguibr/fujipong/utils"
)

const maxHistoryLimit = 100

// Ledger is the append-only score storage behind the relay.
type Ledger interface {
	RecordScore(ctx context.Context, e store.ScoreEntry) (store.ScoreRecord, error)
	LatestBlock(ctx context.Context) (int64, error)
	RecentScores(ctx context.Context, limit int, blockRange int64) ([]store.ScoreRecord, error)
}

// Relay signs submitted match results and appends them to the ledger.
type Relay struct {
	ledger Ledger
	key    []byte
	log    slog.Logger
	app    *fiber.App
}

// New builds the relay and its routes. An empty signingKey makes every
// submission fail with a configuration error.
func New(ledger Ledger, signingKey string, log slog.Logger) *Relay {
	r := &Relay{
		ledger: ledger,
		key:    []byte(signingKey),
		log:    utils.OrDisabled(log),
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		BodyLimit:             16 * 1024,
	})
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Content-Type",
	}))

	api := app.Group("/api")
	api.Post("/submit-score", r.SubmitScore)
	api.Get("/scores", r.Scores)
	api.Get("/block", r.Block)

	r.app = app
	return r
}

// App exposes the fiber application, mainly for tests.
func (r *Relay) App() *fiber.App { return r.app }

// Listen serves the relay until Shutdown is called.
func (r *Relay) Listen(addr string) error {
	r.log.Infof("Relay listening on %s", addr)
	return r.app.Listen(addr)
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (r *Relay) Shutdown() error {
	return r.app.Shutdown()
}

// scoreRequest keeps raw values so missing and mistyped fields can be told apart.
type scoreRequest struct {
	Winner   string      `json:"winner"`
	Loser    string      `json:"loser"`
	Score    string      `json:"score"`
	Duration interface{} `json:"duration"`
}

// SubmitScore handles POST /api/submit-score.
func (r *Relay) SubmitScore(c *fiber.Ctx) error {
	var req scoreRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		r.log.Warnf("Rejecting malformed score body: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Failed to submit score",
			"message": err.Error(),
		})
	}

	if req.Winner == "" || req.Loser == "" || req.Score == "" || req.Duration == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":    "Missing required fields",
			"required": []string{"winner", "loser", "score", "duration"},
		})
	}

	seconds, ok := req.Duration.(float64)
	if !ok || seconds < 0 || math.IsInf(seconds, 0) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Duration must be a positive number",
		})
	}

	if len(r.key) == 0 {
		r.log.Errorf("SERVER_PRIVATE_KEY not set")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Server configuration error",
		})
	}

	entry := store.ScoreEntry{
		Winner:   req.Winner,
		Loser:    req.Loser,
		Score:    req.Score,
		Duration: int(seconds),
	}
	entry.Signature = Sign(r.key, entry)

	rec, err := r.ledger.RecordScore(c.UserContext(), entry)
	if err != nil {
		r.log.Errorf("Error submitting score: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Failed to submit score",
			"message": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"txHash":  rec.TxHash,
	})
}

// Scores handles GET /api/scores?limit=&range=.
func (r *Relay) Scores(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", utils.HistoryLimit)
	if limit <= 0 || limit > maxHistoryLimit {
		limit = utils.HistoryLimit
	}
	blockRange := int64(utils.HistoryBlockRange)
	if v := c.Query("range"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "range must be a positive integer"})
		}
		blockRange = n
	}

	scores, err := r.ledger.RecentScores(c.UserContext(), limit, blockRange)
	if err != nil {
		r.log.Errorf("Error loading scores: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load scores"})
	}
	return c.JSON(fiber.Map{"scores": scores})
}

// Block handles GET /api/block.
func (r *Relay) Block(c *fiber.Ctx) error {
	height, err := r.ledger.LatestBlock(c.UserContext())
	if err != nil {
		r.log.Errorf("Error loading block height: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load block"})
	}
	return c.JSON(fiber.Map{"blockNumber": height})
}

// Sign returns the hex HMAC-SHA256 of an entry's fields.
func Sign(key []byte, e store.ScoreEntry) string {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(e.Winner + "|" + e.Loser + "|" + e.Score + "|" + strconv.Itoa(e.Duration)))
	return hex.EncodeToString(mac.Sum(nil))
}
