package wallet

import (
	"github.com/Luismorlan/misochain/model"
	"github.com/Luismorlan/misochain/utils"
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/pkg/errors"
)

// User builds and signs transactions.
type Wallet struct {
	keys *btcec.PrivateKey
}

// NewWallet loads the key at keyPath, or creates one there when createNewKey is set.
func NewWallet(keyPath string, createNewKey bool) (*Wallet, error) {
	sk, err := utils.ParseKeyFile(keyPath, createNewKey)
	if err != nil {
		return nil, err
	}
	return &Wallet{keys: sk}, nil
}

// NewWalletFromKey wraps an already parsed key.
func NewWalletFromKey(sk *btcec.PrivateKey) (*Wallet, error) {
	if sk == nil || sk.Key.IsZero() {
		return nil, utils.ErrInvalidPrivateKey
	}
	return &Wallet{keys: sk}, nil
}

func (w *Wallet) PublicKeyHex() string {
	return utils.BytesToHex(utils.PublicKeyToBytes(w.keys.PubKey()))
}

func (w *Wallet) Address() (string, error) {
	return utils.PublicKeyToAddress(w.keys.PubKey())
}

// Sign authorizes input idx of tx.
func (w *Wallet) Sign(tx *model.Transaction, idx int) (*model.Witness, error) {
	return utils.SignTxWithKey(tx, idx, w.keys)
}

// CreateTransaction builds a raw transaction from vins and vouts and signs
// every input. Witnesses are returned in input order.
func (w *Wallet) CreateTransaction(vins []model.Vin, vouts []model.Vout) (*model.Transaction, []*model.Witness, error) {
	tx, err := utils.CreateRawTx(vins, vouts)
	if err != nil {
		return nil, nil, err
	}
	witnesses, err := w.SignAll(tx)
	if err != nil {
		return nil, nil, err
	}
	return tx, witnesses, nil
}

// SignAll signs every input of tx.
func (w *Wallet) SignAll(tx *model.Transaction) ([]*model.Witness, error) {
	if tx == nil {
		return nil, utils.ErrNilTransaction
	}
	witnesses := make([]*model.Witness, 0, len(tx.Vins))
	for i := 0; i < len(tx.Vins); i++ {
		wit, err := w.Sign(tx, i)
		if err != nil {
			return nil, errors.Wrapf(err, "sign input %d", i)
		}
		witnesses = append(witnesses, wit)
	}
	return witnesses, nil
}
