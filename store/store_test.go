package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lguibr/fujipong/game"
	"github.com/lguibr/fujipong/utils"
)

var _ game.NameStore = (*ClientNames)(nil)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestMigrateIsRepeatable(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.Migrate())
	require.NoError(t, db.Migrate())
}

func TestClientNames_ScopedPerClient(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	alice := db.Names("client-a")
	other := db.Names("client-b")

	v, err := alice.GetName(ctx, utils.Player1NameKey)
	require.NoError(t, err)
	assert.Equal(t, "", v, "missing names read as empty")

	require.NoError(t, alice.SetName(ctx, utils.Player1NameKey, "alice"))
	require.NoError(t, alice.SetName(ctx, utils.Player1NameKey, "alicia"))

	v, err = alice.GetName(ctx, utils.Player1NameKey)
	require.NoError(t, err)
	assert.Equal(t, "alicia", v)

	v, err = other.GetName(ctx, utils.Player1NameKey)
	require.NoError(t, err)
	assert.Equal(t, "", v)

	assert.Error(t, alice.SetName(ctx, "", "x"))
}

func TestLedger_RecordScoreChainsBlocks(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	height, err := db.LatestBlock(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), height)

	first, err := db.RecordScore(ctx, ScoreEntry{Winner: "alice", Loser: "AI", Score: "3-1", Duration: 42, Signature: "sig1"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), first.Block)
	assert.Equal(t, GenesisHash, first.PrevHash)
	assert.Len(t, first.TxHash, 66)

	second, err := db.RecordScore(ctx, ScoreEntry{Winner: "bob", Loser: "alice", Score: "0-3", Duration: 7, Signature: "sig2"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), second.Block)
	assert.Equal(t, first.TxHash, second.PrevHash)
	assert.NotEqual(t, first.TxHash, second.TxHash)

	height, err = db.LatestBlock(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), height)

	require.NoError(t, db.VerifyChain(ctx))

	got, err := db.GetScore(ctx, second.TxHash)
	require.NoError(t, err)
	assert.Equal(t, second, got)

	_, err = db.GetScore(ctx, "0xmissing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLedger_VerifyChainDetectsTampering(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	_, err := db.RecordScore(ctx, ScoreEntry{Winner: "alice", Loser: "bob", Score: "3-2", Duration: 60, Signature: "s"})
	require.NoError(t, err)

	_, err = db.db.Exec(`UPDATE scores SET score = '3-0' WHERE block = 1`)
	require.NoError(t, err)
	assert.Error(t, db.VerifyChain(ctx))
}

func TestLedger_RecentScores(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	db.now = func() time.Time { return time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC) }

	for i := 1; i <= 15; i++ {
		_, err := db.RecordScore(ctx, ScoreEntry{
			Winner: fmt.Sprintf("p%d", i), Loser: "AI", Score: "3-0", Duration: i, Signature: "s",
		})
		require.NoError(t, err)
	}

	recent, err := db.RecentScores(ctx, 10, 2000)
	require.NoError(t, err)
	require.Len(t, recent, 10)
	assert.Equal(t, int64(15), recent[0].Block, "newest first")
	assert.Equal(t, int64(6), recent[9].Block)
	assert.Equal(t, "p15", recent[0].Winner)
	assert.Equal(t, db.now(), recent[0].RecordedAt)

	recent, err = db.RecentScores(ctx, 10, 3)
	require.NoError(t, err)
	assert.Len(t, recent, 3, "only the last blockRange blocks")
}
