package main

import (
	"fmt"
	"os"

	"github.com/Luismorlan/misochain/model"
	"github.com/Luismorlan/misochain/utils"
	"github.com/Luismorlan/misochain/wallet"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v2"
)

var keyPathFlag = &cli.StringFlag{
	Name:  "key_path",
	Value: "/tmp/misochain.key",
	Usage: "WIF file path for your private key",
}

// signedTransaction is what `sign` prints: the transaction and one witness per input.
type signedTransaction struct {
	Transaction *model.Transaction `yaml:"transaction"`
	Witnesses   []*model.Witness   `yaml:"witnesses"`
}

func main() {
	app := &cli.App{
		Name:  "wallet",
		Usage: "create keys and sign misochain transactions",
		Commands: []*cli.Command{
			{
				Name:  "keygen",
				Usage: "Generate a new private key and save it to key_path",
				Flags: []cli.Flag{keyPathFlag},
				Action: func(c *cli.Context) error {
					w, err := wallet.NewWallet(c.String("key_path"), true)
					if err != nil {
						return err
					}
					addr, err := w.Address()
					if err != nil {
						return err
					}
					fmt.Printf("Saved private key in file %s\n", c.String("key_path"))
					fmt.Printf("Public key: %s\n", w.PublicKeyHex())
					fmt.Printf("Address:    %s\n", addr)
					return nil
				},
			},
			{
				Name:  "address",
				Usage: "Print the public key and address of the key at key_path",
				Flags: []cli.Flag{keyPathFlag},
				Action: func(c *cli.Context) error {
					w, err := wallet.NewWallet(c.String("key_path"), false)
					if err != nil {
						return err
					}
					addr, err := w.Address()
					if err != nil {
						return err
					}
					fmt.Printf("Public key: %s\n", w.PublicKeyHex())
					fmt.Printf("Address:    %s\n", addr)
					return nil
				},
			},
			{
				Name:  "sign",
				Usage: "Compute the txid of a YAML transaction and sign every input",
				Flags: []cli.Flag{
					keyPathFlag,
					&cli.StringFlag{
						Name:     "tx",
						Usage:    "path to a YAML file with vins and vouts",
						Required: true,
					},
				},
				Action: func(c *cli.Context) error {
					w, err := wallet.NewWallet(c.String("key_path"), false)
					if err != nil {
						return err
					}
					tx, err := utils.ReadTransactionFile(c.String("tx"))
					if err != nil {
						return err
					}
					witnesses, err := w.SignAll(tx)
					if err != nil {
						return err
					}
					out, err := yaml.Marshal(signedTransaction{Transaction: tx, Witnesses: witnesses})
					if err != nil {
						return err
					}
					fmt.Print(string(out))
					return nil
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
