// File: store/ledger.go
package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// GenesisHash is the previous hash of the first block.
const GenesisHash = "0x0000000000000000000000000000000000000000000000000000000000000000"

// ScoreEntry is a signed match result waiting to be appended.
type ScoreEntry struct {
	Winner    string
	Loser     string
	Score     string
	Duration  int
	Signature string
}

// ScoreRecord is one block of the score ledger.
type ScoreRecord struct {
	Block      int64     `json:"blockNumber"`
	Winner     string    `json:"winner"`
	Loser      string    `json:"loser"`
	Score      string    `json:"score"`
	Duration   int       `json:"duration"`
	Signature  string    `json:"signature"`
	PrevHash   string    `json:"prevHash"`
	TxHash     string    `json:"txHash"`
	RecordedAt time.Time `json:"timestamp"`
}

// blockHash chains a record to its predecessor.
func blockHash(prevHash string, block int64, e ScoreEntry) string {
	payload := strings.Join([]string{
		prevHash,
		strconv.FormatInt(block, 10),
		e.Winner,
		e.Loser,
		e.Score,
		strconv.Itoa(e.Duration),
		e.Signature,
	}, "|")
	sum := sha256.Sum256([]byte(payload))
	return "0x" + hex.EncodeToString(sum[:])
}

// RecordScore appends an entry as the next block and returns the stored record.
func (s *DB) RecordScore(ctx context.Context, e ScoreEntry) (ScoreRecord, error) {
	s.ledgerMu.Lock()
	defer s.ledgerMu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ScoreRecord{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	prevHash := GenesisHash
	var prevBlock int64
	err = tx.QueryRowContext(ctx, `SELECT block, tx_hash FROM scores ORDER BY block DESC LIMIT 1`).Scan(&prevBlock, &prevHash)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return ScoreRecord{}, fmt.Errorf("failed to read chain head: %w", err)
	}

	rec := ScoreRecord{
		Block:      prevBlock + 1,
		Winner:     e.Winner,
		Loser:      e.Loser,
		Score:      e.Score,
		Duration:   e.Duration,
		Signature:  e.Signature,
		PrevHash:   prevHash,
		RecordedAt: s.now().UTC().Truncate(time.Second),
	}
	rec.TxHash = blockHash(prevHash, rec.Block, e)

	_, err = tx.ExecContext(ctx,
		`INSERT INTO scores (block, winner, loser, score, duration, signature, prev_hash, tx_hash, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.Block, rec.Winner, rec.Loser, rec.Score, rec.Duration, rec.Signature, rec.PrevHash, rec.TxHash, rec.RecordedAt.Unix(),
	)
	if err != nil {
		return ScoreRecord{}, fmt.Errorf("failed to insert block %d: %w", rec.Block, err)
	}
	if err := tx.Commit(); err != nil {
		return ScoreRecord{}, fmt.Errorf("failed to commit block %d: %w", rec.Block, err)
	}

	s.log.Infof("Block %d: %s beat %s %s (%s)", rec.Block, rec.Winner, rec.Loser, rec.Score, rec.TxHash)
	return rec, nil
}

// LatestBlock returns the height of the chain head, 0 when empty.
func (s *DB) LatestBlock(ctx context.Context) (int64, error) {
	var height sql.NullInt64
	if err := s.db.QueryRowContext(ctx, `SELECT MAX(block) FROM scores`).Scan(&height); err != nil {
		return 0, fmt.Errorf("failed to read latest block: %w", err)
	}
	return height.Int64, nil
}

// RecentScores returns up to limit records from the last blockRange blocks,
// newest first.
func (s *DB) RecentScores(ctx context.Context, limit int, blockRange int64) ([]ScoreRecord, error) {
	latest, err := s.LatestBlock(ctx)
	if err != nil {
		return nil, err
	}
	from := latest - blockRange
	if from < 0 {
		from = 0
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT block, winner, loser, score, duration, signature, prev_hash, tx_hash, recorded_at
		FROM scores WHERE block > ? ORDER BY block DESC LIMIT ?`,
		from, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query scores: %w", err)
	}
	defer rows.Close()

	records := make([]ScoreRecord, 0, limit)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// GetScore returns the record with the given transaction hash.
func (s *DB) GetScore(ctx context.Context, txHash string) (ScoreRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT block, winner, loser, score, duration, signature, prev_hash, tx_hash, recorded_at
		FROM scores WHERE tx_hash = ?`, txHash)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ScoreRecord{}, fmt.Errorf("score %s: %w", txHash, ErrNotFound)
	}
	return rec, err
}

// VerifyChain recomputes every block hash and reports the first mismatch.
func (s *DB) VerifyChain(ctx context.Context) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT block, winner, loser, score, duration, signature, prev_hash, tx_hash, recorded_at
		FROM scores ORDER BY block ASC`)
	if err != nil {
		return fmt.Errorf("failed to query scores: %w", err)
	}
	defer rows.Close()

	prevHash := GenesisHash
	var prevBlock int64
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return err
		}
		if rec.Block != prevBlock+1 || rec.PrevHash != prevHash {
			return fmt.Errorf("block %d does not follow block %d", rec.Block, prevBlock)
		}
		entry := ScoreEntry{rec.Winner, rec.Loser, rec.Score, rec.Duration, rec.Signature}
		if blockHash(rec.PrevHash, rec.Block, entry) != rec.TxHash {
			return fmt.Errorf("block %d hash mismatch", rec.Block)
		}
		prevHash, prevBlock = rec.TxHash, rec.Block
	}
	return rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row rowScanner) (ScoreRecord, error) {
	var rec ScoreRecord
	var recordedAt int64
	err := row.Scan(&rec.Block, &rec.Winner, &rec.Loser, &rec.Score, &rec.Duration,
		&rec.Signature, &rec.PrevHash, &rec.TxHash, &recordedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return rec, err
		}
		return rec, fmt.Errorf("failed to scan score: %w", err)
	}
	rec.RecordedAt = time.Unix(recordedAt, 0).UTC()
	return rec, nil
}
