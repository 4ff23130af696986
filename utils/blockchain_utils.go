package utils

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Luismorlan/misochain/commands"
	"github.com/Luismorlan/misochain/model"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Clock returns the current time in unix seconds.
type Clock func() int64

func SystemClock() int64 {
	return time.Now().Unix()
}

// FixedClock always returns ts. Useful to make mining reproducible.
func FixedClock(ts int64) Clock {
	return func() int64 { return ts }
}

// Solution is a nonce and timestamp whose block hash meets the difficulty.
type Solution struct {
	Hash      string
	Nonce     int64
	Timestamp int64
	// Total number of hashes computed across all workers.
	Attempts int64
}

type mineOptions struct {
	clock   Clock
	workers int
	log     *zap.Logger
}

type MineOption func(*mineOptions)

func WithClock(c Clock) MineOption {
	return func(o *mineOptions) { o.clock = c }
}

// WithWorkers splits the nonce space across n goroutines. Worker w tries
// nonces w, w+n, w+2n, ...
func WithWorkers(n int) MineOption {
	return func(o *mineOptions) { o.workers = n }
}

func WithMineLogger(l *zap.Logger) MineOption {
	return func(o *mineOptions) { o.log = l }
}

var errSolved = errors.New("solution found")

// FlattenTransactions collects the txids, vins and vouts of all transactions, in order.
// Nil entries contribute nothing; callers hashing a block reject them first with
// checkBlock.
func FlattenTransactions(txs []*model.Transaction) ([]string, []model.Vin, []model.Vout) {
	txids := make([]string, 0, len(txs))
	var vins []model.Vin
	var vouts []model.Vout
	for _, tx := range txs {
		if tx == nil {
			continue
		}
		txids = append(txids, tx.Txid)
		vins = append(vins, tx.Vins...)
		vouts = append(vouts, tx.Vouts...)
	}
	return txids, vins, vouts
}

// MatchDifficulty reports whether digest starts with difficulty '0' characters.
func MatchDifficulty(digest string, difficulty int) bool {
	if difficulty < 0 || difficulty > len(digest) {
		return false
	}
	return strings.HasPrefix(digest, strings.Repeat("0", difficulty))
}

// checkBlock rejects blocks that cannot be hashed faithfully.
func checkBlock(block *model.Block) error {
	if block == nil {
		return ErrNilBlock
	}
	if block.Difficulty < 0 {
		return errors.Wrapf(ErrInvalidDifficulty, "got %d", block.Difficulty)
	}
	for i, tx := range block.Transactions {
		if tx == nil {
			return errors.Wrapf(ErrNilTransaction, "transactions[%d]", i)
		}
	}
	return nil
}

// BlockHash computes the hash of block on top of prevHash for one nonce and timestamp.
func BlockHash(block *model.Block, prevHash string, nonce int64, timestamp int64) (string, error) {
	if err := checkBlock(block); err != nil {
		return "", err
	}
	txids, vins, vouts := FlattenTransactions(block.Transactions)
	return blockHash(txids, vins, vouts, block, prevHash, nonce, timestamp), nil
}

func blockHash(txids []string, vins []model.Vin, vouts []model.Vout, block *model.Block, prevHash string, nonce int64, timestamp int64) string {
	return GetHash(
		WithVins(vins...),
		WithVouts(vouts...),
		WithTxids(txids...),
		WithPrevBlockHash(prevHash),
		WithHeight(block.Height),
		WithTimestamp(timestamp),
		WithDifficulty(block.Difficulty),
		WithNonce(nonce),
	)
}

// Search iterates the nonce from 0 until the block hash meets block.Difficulty,
// sampling a fresh timestamp on every attempt. It has no upper bound and only
// returns early when ctx is done.
func Search(ctx context.Context, block *model.Block, prevHash string, opts ...MineOption) (*Solution, error) {
	if err := checkBlock(block); err != nil {
		return nil, err
	}

	o := mineOptions{
		clock:   SystemClock,
		workers: 1,
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.workers < 1 {
		o.workers = 1
	}

	// Transactions don't change across attempts.
	txids, vins, vouts := FlattenTransactions(block.Transactions)
	target := strings.Repeat("0", block.Difficulty)
	step := int64(o.workers)

	var attempts atomic.Int64
	found := make(chan *Solution, 1)

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < o.workers; w++ {
		start := int64(w)
		g.Go(func() error {
			for nonce := start; ; nonce += step {
				select {
				case <-gctx.Done():
					return gctx.Err()
				default:
				}

				ts := o.clock()
				digest := blockHash(txids, vins, vouts, block, prevHash, nonce, ts)
				attempts.Add(1)
				if strings.HasPrefix(digest, target) {
					// Only the first solution is kept.
					select {
					case found <- &Solution{Hash: digest, Nonce: nonce, Timestamp: ts}:
					default:
					}
					return errSolved
				}
			}
		})
	}
	err := g.Wait()

	select {
	case sol := <-found:
		sol.Attempts = attempts.Load()
		o.log.Debug("found block hash",
			zap.String("hash", sol.Hash),
			zap.Int64("height", block.Height),
			zap.Int64("nonce", sol.Nonce),
			zap.Int64("attempts", sol.Attempts),
		)
		return sol, nil
	default:
	}

	if err == nil {
		err = ctx.Err()
	}
	return nil, errors.Wrapf(ErrMiningInterrupted, "after %d attempts: %v", attempts.Load(), err)
}

// MineBlockContext mines block on top of prevHash and returns the winning hash.
func MineBlockContext(ctx context.Context, block *model.Block, prevHash string, opts ...MineOption) (string, error) {
	sol, err := Search(ctx, block, prevHash, opts...)
	if err != nil {
		return "", err
	}
	return sol.Hash, nil
}

// MineBlock mines block until a hash is found or a STOP/RESTART command arrives on ctl.
// The interrupting command is returned so the caller can decide what to do next.
func MineBlock(block *model.Block, prevHash string, ctl chan commands.Command, opts ...MineOption) (string, commands.Command, error) {
	sol, c, err := mineWithControl(block, prevHash, ctl, opts...)
	if err != nil {
		return "", c, err
	}
	return sol.Hash, c, nil
}

func mineWithControl(block *model.Block, prevHash string, ctl chan commands.Command, opts ...MineOption) (*Solution, commands.Command, error) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan commands.Command, 1)
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case c := <-ctl:
				if !c.Interrupts() {
					continue
				}
				received <- c
				cancel()
				return
			case <-done:
				return
			}
		}
	}()

	sol, err := Search(ctx, block, prevHash, opts...)
	close(done)
	wg.Wait()

	c := commands.NewDefaultCommand()
	select {
	case c = <-received:
	default:
	}
	return sol, c, err
}

// MineSolution is MineBlock returning the full solution instead of only the hash.
func MineSolution(block *model.Block, prevHash string, ctl chan commands.Command, opts ...MineOption) (*Solution, commands.Command, error) {
	return mineWithControl(block, prevHash, ctl, opts...)
}
