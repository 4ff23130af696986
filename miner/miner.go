package miner

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Luismorlan/misochain/commands"
	"github.com/Luismorlan/misochain/config"
	"github.com/Luismorlan/misochain/logger"
	"github.com/Luismorlan/misochain/model"
	"github.com/Luismorlan/misochain/utils"
	"github.com/pkg/errors"
	uuid "github.com/satori/go.uuid"
	"go.uber.org/zap"
)

// A miner turns block templates into mined block hashes. It does not keep any
// chain state; the caller attaches the hash to its chain.
type Miner struct {
	// Mining config.
	config config.AppConfig
	log    *zap.Logger
	// Time source sampled on every attempt.
	clock utils.Clock
	// Protects stats.
	m     sync.RWMutex
	stats Stats
	// A unique identifier of this miner, only used to tell miners apart in logs.
	uuid string
}

type Stats struct {
	Solved int
	// Searches stopped by STOP or RESTART.
	Interrupted int
	// Searches rejected because the block could not be mined.
	Failed int
	// Hashes computed over all searches.
	Attempts int64
	LastHash string
}

// Result is a mined block together with the solution found for it.
type Result struct {
	Block    *model.Block
	PrevHash string
	Solution *utils.Solution
}

// Template supplies the next block to mine and the hash of its parent.
type Template func() (*model.Block, string, error)

func NewMiner(c config.AppConfig, log *zap.Logger) *Miner {
	id := uuid.NewV4().String()
	return &Miner{
		config: c,
		log:    logger.OrNop(log).With(zap.String("miner", id)),
		clock:  utils.SystemClock,
		uuid:   id,
	}
}

// SetClock replaces the time source, mostly for tests.
func (m *Miner) SetClock(c utils.Clock) {
	m.clock = c
}

func (m *Miner) ID() string {
	return m.uuid
}

func (m *Miner) Stats() Stats {
	m.m.RLock()
	defer m.m.RUnlock()
	return m.stats
}

// BuildBlock creates a block at height with the configured difficulty. When a
// reward address is configured, a coinbase paying the reward is put first.
func (m *Miner) BuildBlock(height int64, txs []*model.Transaction) (*model.Block, error) {
	all := make([]*model.Transaction, 0, len(txs)+1)
	if m.config.RewardAddress != "" {
		cb, err := utils.CreateCoinbaseTx(m.config.RewardAddress, m.config.CoinbaseReward, height)
		if err != nil {
			return nil, errors.Wrap(err, "coinbase")
		}
		all = append(all, cb)
	}
	all = append(all, txs...)

	return &model.Block{
		Height:       height,
		Difficulty:   m.config.Difficulty,
		Transactions: all,
	}, nil
}

// Mine searches for a hash of block on top of prevHash. ctl interrupts the
// search at any time with STOP or RESTART.
func (m *Miner) Mine(ctl chan commands.Command, block *model.Block, prevHash string) (*utils.Solution, commands.Command, error) {
	start := time.Now()
	sol, c, err := utils.MineSolution(block, prevHash, ctl,
		utils.WithWorkers(m.config.Workers),
		utils.WithClock(m.clock),
		utils.WithMineLogger(m.log),
	)

	interrupted := errors.Is(err, utils.ErrMiningInterrupted)
	m.m.Lock()
	switch {
	case err == nil:
		m.stats.Solved++
		m.stats.Attempts += sol.Attempts
		m.stats.LastHash = sol.Hash
	case interrupted:
		m.stats.Interrupted++
	default:
		m.stats.Failed++
	}
	m.m.Unlock()

	if interrupted {
		m.log.Info("mining stopped", zap.Stringer("command", c), zap.Error(err))
		return nil, c, err
	}
	if err != nil {
		m.log.Error("mining failed", zap.Error(err))
		return nil, c, err
	}
	m.log.Info("mined block",
		zap.String("hash", sol.Hash),
		zap.Int64("height", block.Height),
		zap.Int("difficulty", block.Difficulty),
		zap.Int64("nonce", sol.Nonce),
		zap.Int64("attempts", sol.Attempts),
		zap.Duration("elapsed", time.Since(start)),
	)
	return sol, c, nil
}

// HandleCommands serves start/stop/restart/status commands until ctx is done.
// While running, it keeps mining blocks from next and sends each solution to results.
func (m *Miner) HandleCommands(ctx context.Context, cmd <-chan commands.Command, next Template, results chan<- Result) {
	// A separate control channel keeps cmd non-blocking when we only want to
	// interrupt the current search.
	ctl := make(chan commands.Command, 1)
	var running atomic.Bool
	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		select {
		case <-ctx.Done():
			if running.Load() {
				relay(ctl, commands.Command{Op: commands.STOP})
			}
			return
		case c := <-cmd:
			switch c.Op {
			case commands.START:
				if !running.CompareAndSwap(false, true) {
					m.log.Warn("mining has already been started")
					continue
				}
				drain(ctl)
				wg.Add(1)
				go func() {
					defer wg.Done()
					defer running.Store(false)
					m.run(ctx, ctl, next, results)
				}()
			case commands.RESTART, commands.STOP:
				if !running.Load() {
					m.log.Warn("no running mining task to be restarted or stopped", zap.Stringer("command", c))
					continue
				}
				relay(ctl, c)
			case commands.STATUS:
				s := m.Stats()
				m.log.Info("miner status",
					zap.Bool("running", running.Load()),
					zap.Int("solved", s.Solved),
					zap.Int("interrupted", s.Interrupted),
					zap.Int("failed", s.Failed),
					zap.Int64("attempts", s.Attempts),
					zap.String("last_hash", s.LastHash),
				)
			default:
				m.log.Warn("unrecognized command", zap.Stringer("command", c))
			}
		}
	}
}

func (m *Miner) run(ctx context.Context, ctl chan commands.Command, next Template, results chan<- Result) {
	for ctx.Err() == nil {
		block, prevHash, err := next()
		if err != nil {
			m.log.Error("failed to get block template", zap.Error(err))
			return
		}

		sol, c, err := m.Mine(ctl, block, prevHash)
		if err != nil {
			if errors.Is(err, utils.ErrMiningInterrupted) && c.Op == commands.RESTART {
				continue
			}
			return
		}

		select {
		case results <- Result{Block: block, PrevHash: prevHash, Solution: sol}:
		case <-ctx.Done():
			return
		}
		if c.Op == commands.STOP {
			return
		}
	}
}

func relay(ctl chan commands.Command, c commands.Command) {
	select {
	case ctl <- c:
	default:
	}
}

// drain drops a command left over from a previous run.
func drain(ctl chan commands.Command) {
	select {
	case <-ctl:
	default:
	}
}
