package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/Luismorlan/misochain/commands"
	"github.com/Luismorlan/misochain/config"
	"github.com/Luismorlan/misochain/logger"
	"github.com/Luismorlan/misochain/miner"
	"github.com/Luismorlan/misochain/model"
	"github.com/Luismorlan/misochain/utils"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

func loadConfig(path string) (config.AppConfig, error) {
	if path == "" {
		return config.DefaultAppConfig(), nil
	}
	return config.LoadAppConfig(path)
}

// ParseCommand reads one command per line from r until r is exhausted or ctx is done.
func ParseCommand(ctx context.Context, r io.Reader, cmd chan<- commands.Command, log *zap.Logger) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		c, err := commands.CreateCommand(scanner.Text())
		if err != nil {
			log.Warn("ignoring input", zap.String("line", scanner.Text()), zap.Error(err))
			continue
		}
		select {
		case cmd <- c:
		case <-ctx.Done():
			return
		}
	}
}

func mine(c *cli.Context) error {
	cfg, err := loadConfig(c.String("config"))
	if err != nil {
		return err
	}
	if c.IsSet("difficulty") {
		cfg.Difficulty = c.Int("difficulty")
	}
	if c.IsSet("workers") {
		cfg.Workers = c.Int("workers")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := logger.New(cfg.Logger)
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	tmpl, err := utils.ReadBlockFile(c.String("block"))
	if err != nil {
		return err
	}
	m := miner.NewMiner(cfg, log)
	block, err := m.BuildBlock(tmpl.Height, tmpl.Transactions)
	if err != nil {
		return err
	}
	prevHash := c.String("prev_hash")

	ctx, cancel := signal.NotifyContext(c.Context, os.Interrupt)
	defer cancel()

	// Commands typed on stdin; "stop" ends the program.
	input := make(chan commands.Command)
	cmd := make(chan commands.Command, 1)
	go ParseCommand(ctx, os.Stdin, input, log)
	go func() {
		for {
			select {
			case in := <-input:
				select {
				case cmd <- in:
				case <-ctx.Done():
					return
				}
				if in.Op == commands.STOP {
					cancel()
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	results := make(chan miner.Result)
	done := make(chan struct{})
	go func() {
		defer close(done)
		m.HandleCommands(ctx, cmd, func() (*model.Block, string, error) {
			return block, prevHash, nil
		}, results)
	}()

	log.Info("start mining",
		zap.String("miner", m.ID()),
		zap.Int64("height", block.Height),
		zap.Int("difficulty", block.Difficulty),
		zap.Int("transactions", len(block.Transactions)),
		zap.Int("workers", cfg.Workers),
	)
	cmd <- commands.Command{Op: commands.START}

	select {
	case r := <-results:
		cancel()
		<-done
		fmt.Printf("hash:      %s\n", r.Solution.Hash)
		fmt.Printf("nonce:     %d\n", r.Solution.Nonce)
		fmt.Printf("timestamp: %d\n", r.Solution.Timestamp)
		fmt.Printf("attempts:  %d\n", r.Solution.Attempts)
		return nil
	case <-ctx.Done():
		<-done
		return errors.Wrap(utils.ErrMiningInterrupted, "stopped before a hash was found")
	}
}

func txids(c *cli.Context) error {
	block, err := utils.ReadBlockFile(c.String("block"))
	if err != nil {
		return err
	}
	for i, tx := range block.Transactions {
		fmt.Printf("%d %s\n", i, tx.Txid)
	}
	return nil
}

func main() {
	blockFlag := &cli.StringFlag{
		Name:     "block",
		Usage:    "path to a YAML block template",
		Required: true,
	}

	app := &cli.App{
		Name:  "miner",
		Usage: "mine misochain blocks",
		Commands: []*cli.Command{
			{
				Name:  "mine",
				Usage: "Search for a nonce whose block hash meets the difficulty",
				Flags: []cli.Flag{
					blockFlag,
					&cli.StringFlag{Name: "config", Usage: "path to miner config"},
					&cli.StringFlag{Name: "prev_hash", Usage: "hash of the previous block"},
					&cli.IntFlag{Name: "difficulty", Usage: "override the configured difficulty"},
					&cli.IntFlag{Name: "workers", Usage: "override the configured worker count"},
				},
				Action: mine,
			},
			{
				Name:   "txid",
				Usage:  "Print the id of every transaction in a block template",
				Flags:  []cli.Flag{blockFlag},
				Action: txids,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
