package miner

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Luismorlan/misochain/commands"
	"github.com/Luismorlan/misochain/config"
	"github.com/Luismorlan/misochain/model"
	"github.com/Luismorlan/misochain/utils"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const testTimestamp = 1700000000

func createTestConfig(difficulty int) config.AppConfig {
	c := config.DefaultAppConfig()
	c.Difficulty = difficulty
	c.RewardAddress = "miner"
	c.CoinbaseReward = 50
	c.Workers = 2
	return c
}

func createTestMiner(t *testing.T, difficulty int) *Miner {
	m := NewMiner(createTestConfig(difficulty), zaptest.NewLogger(t))
	m.SetClock(utils.FixedClock(testTimestamp))
	return m
}

func createTestTxs(t *testing.T) []*model.Transaction {
	tx, err := utils.CreateRawTx([]model.Vin{model.NewVin("abc", 0)}, []model.Vout{{Address: "addr1", Value: 10}})
	require.NoError(t, err)
	return []*model.Transaction{tx}
}

func TestNewMinerHasUniqueID(t *testing.T) {
	a := NewMiner(createTestConfig(1), nil)
	b := NewMiner(createTestConfig(1), nil)
	assert.NotEmpty(t, a.ID())
	assert.NotEqual(t, a.ID(), b.ID())
}

func TestBuildBlock(t *testing.T) {
	m := createTestMiner(t, 3)
	txs := createTestTxs(t)

	block, err := m.BuildBlock(5, txs)
	require.NoError(t, err)
	assert.Equal(t, int64(5), block.Height)
	assert.Equal(t, 3, block.Difficulty)
	require.Len(t, block.Transactions, 2)

	cb, err := utils.CreateCoinbaseTx("miner", 50, 5)
	require.NoError(t, err)
	assert.Equal(t, cb, block.Transactions[0])
	assert.Equal(t, txs[0], block.Transactions[1])
	// The caller's slice is untouched.
	assert.Len(t, txs, 1)
}

func TestBuildBlockWithoutRewardAddress(t *testing.T) {
	c := createTestConfig(1)
	c.RewardAddress = ""
	m := NewMiner(c, nil)

	block, err := m.BuildBlock(1, createTestTxs(t))
	require.NoError(t, err)
	assert.Len(t, block.Transactions, 1)
}

func TestMine(t *testing.T) {
	m := createTestMiner(t, 2)
	block, err := m.BuildBlock(1, createTestTxs(t))
	require.NoError(t, err)

	sol, c, err := m.Mine(make(chan commands.Command), block, "prev")
	require.NoError(t, err)
	assert.True(t, c.IsDefault())
	assert.True(t, utils.MatchDifficulty(sol.Hash, 2))
	expected, err := utils.BlockHash(block, "prev", sol.Nonce, testTimestamp)
	require.NoError(t, err)
	assert.Equal(t, expected, sol.Hash)

	s := m.Stats()
	assert.Equal(t, 1, s.Solved)
	assert.Equal(t, 0, s.Interrupted)
	assert.Equal(t, sol.Hash, s.LastHash)
	assert.Equal(t, sol.Attempts, s.Attempts)
}

func TestMineInterruption(t *testing.T) {
	m := createTestMiner(t, 100)
	block, err := m.BuildBlock(1, createTestTxs(t))
	require.NoError(t, err)

	ctl := make(chan commands.Command)
	go func() {
		ctl <- commands.Command{Op: commands.STOP}
	}()

	sol, c, err := m.Mine(ctl, block, "prev")
	assert.Nil(t, sol)
	assert.True(t, errors.Is(err, utils.ErrMiningInterrupted))
	assert.Equal(t, commands.STOP, c.Op)
	assert.Equal(t, 1, m.Stats().Interrupted)
}

func TestMineInvalidBlock(t *testing.T) {
	m := createTestMiner(t, 1)
	block, err := m.BuildBlock(1, createTestTxs(t))
	require.NoError(t, err)
	block.Difficulty = -1

	sol, c, err := m.Mine(make(chan commands.Command), block, "prev")
	assert.Nil(t, sol)
	assert.True(t, c.IsDefault())
	assert.True(t, errors.Is(err, utils.ErrInvalidDifficulty))

	_, _, err = m.Mine(make(chan commands.Command), nil, "prev")
	assert.True(t, errors.Is(err, utils.ErrNilBlock))

	s := m.Stats()
	assert.Equal(t, 0, s.Interrupted)
	assert.Equal(t, 2, s.Failed)
	assert.Equal(t, 0, s.Solved)
}

func TestHandleCommandsMinesTemplates(t *testing.T) {
	m := createTestMiner(t, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var height atomic.Int64
	next := func() (*model.Block, error) {
		return m.BuildBlock(height.Add(1), createTestTxs(t))
	}

	cmd := make(chan commands.Command)
	results := make(chan Result)
	done := make(chan struct{})
	go func() {
		defer close(done)
		m.HandleCommands(ctx, cmd, func() (*model.Block, string, error) {
			block, err := next()
			return block, "prev", err
		}, results)
	}()

	cmd <- commands.Command{Op: commands.START}
	for want := int64(1); want <= 2; want++ {
		select {
		case r := <-results:
			assert.Equal(t, want, r.Block.Height)
			assert.Equal(t, "prev", r.PrevHash)
			assert.True(t, utils.MatchDifficulty(r.Solution.Hash, 1))
		case <-time.After(10 * time.Second):
			t.Fatal("no block mined")
		}
	}

	cmd <- commands.Command{Op: commands.STATUS}
	cancel()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("HandleCommands did not return")
	}
	assert.GreaterOrEqual(t, m.Stats().Solved, 2)
}

func TestHandleCommandsStop(t *testing.T) {
	m := createTestMiner(t, 100)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var templates atomic.Int64
	next := func() (*model.Block, string, error) {
		templates.Add(1)
		block, err := m.BuildBlock(1, createTestTxs(t))
		return block, "prev", err
	}

	cmd := make(chan commands.Command)
	results := make(chan Result)
	done := make(chan struct{})
	go func() {
		defer close(done)
		m.HandleCommands(ctx, cmd, next, results)
	}()

	cmd <- commands.Command{Op: commands.START}
	// Starting twice is ignored.
	cmd <- commands.Command{Op: commands.START}
	assert.Eventually(t, func() bool { return templates.Load() == 1 }, 5*time.Second, 5*time.Millisecond)

	cmd <- commands.Command{Op: commands.RESTART}
	assert.Eventually(t, func() bool { return templates.Load() == 2 }, 5*time.Second, 5*time.Millisecond)

	cmd <- commands.Command{Op: commands.STOP}
	assert.Eventually(t, func() bool { return m.Stats().Interrupted == 2 }, 5*time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("HandleCommands did not return")
	}
	assert.Equal(t, int64(2), templates.Load())
	assert.Equal(t, 0, m.Stats().Solved)
}

func TestHandleCommandsTemplateError(t *testing.T) {
	m := createTestMiner(t, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int64
	next := func() (*model.Block, string, error) {
		calls.Add(1)
		return nil, "", errors.New("no template")
	}

	cmd := make(chan commands.Command)
	done := make(chan struct{})
	go func() {
		defer close(done)
		m.HandleCommands(ctx, cmd, next, make(chan Result))
	}()

	cmd <- commands.Command{Op: commands.START}
	assert.Eventually(t, func() bool { return calls.Load() == 1 }, 5*time.Second, 5*time.Millisecond)

	cancel()
	<-done
	assert.Equal(t, 0, m.Stats().Solved)
}
