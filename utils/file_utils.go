package utils

import (
	"fmt"
	"os"
	"strings"

	"github.com/Luismorlan/misochain/model"
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// ParseKeyFile reads the private key stored at fPath, or generates and saves a
// new one there when createNewKey is set.
func ParseKeyFile(fPath string, createNewKey bool) (*btcec.PrivateKey, error) {
	if fPath == "" {
		return nil, errors.New("file path is missing")
	}
	// Generate new key and save to given path
	if createNewKey {
		userKey, _, err := GenerateKeyPair()
		if err != nil {
			return nil, errors.Wrap(err, "generate key")
		}
		if err := SavePrivateKeyToFile(userKey, fPath); err != nil {
			return nil, err
		}
		return userKey, nil
	}
	// Read key from existing key file
	userKey, err := ReadKeyFromFPath(fPath)
	if err != nil {
		return nil, errors.Wrapf(err, "read key from %s", fPath)
	}
	return userKey, nil
}

// SavePrivateKeyToFile stores privkey as a WIF string, readable only by the owner.
func SavePrivateKeyToFile(privkey *btcec.PrivateKey, fpath string) error {
	wif, err := PrivateKeyToWIF(privkey)
	if err != nil {
		return err
	}
	if err := os.WriteFile(fpath, []byte(wif+"\n"), 0600); err != nil {
		return errors.Wrapf(err, "failed to save key in %s", fpath)
	}
	return nil
}

func ReadKeyFromFPath(fPath string) (*btcec.PrivateKey, error) {
	fileContent, err := os.ReadFile(fPath)
	if err != nil {
		return nil, err
	}
	content := strings.TrimSpace(string(fileContent))
	if content == "" {
		return nil, errors.New("key file is empty, please check filepath")
	}
	return ParsePrivateKey(content)
}

// voutTemplate is a Vout as written in a template file. Value is a pointer so
// that a missing value is told apart from an explicit 0.
type voutTemplate struct {
	Address string `yaml:"address"`
	Value   *int64 `yaml:"value"`
}

type txTemplate struct {
	Vins  []model.Vin    `yaml:"vins"`
	Vouts []voutTemplate `yaml:"vouts"`
}

type blockTemplate struct {
	Height       int64         `yaml:"height"`
	Difficulty   int           `yaml:"difficulty"`
	Transactions []*txTemplate `yaml:"transactions"`
}

// build checks the template and creates the transaction through CreateRawTx.
// Field errors are reported with prefix prepended to the field path.
func (t *txTemplate) build(prefix string) (*model.Transaction, error) {
	vouts := make([]model.Vout, 0, len(t.Vouts))
	for j, v := range t.Vouts {
		if v.Value == nil {
			return nil, &FieldError{Field: fmt.Sprintf("%svouts[%d].value", prefix, j), Reason: "missing"}
		}
		vouts = append(vouts, model.Vout{Address: v.Address, Value: *v.Value})
	}
	tx, err := CreateRawTx(t.Vins, vouts)
	if err != nil {
		var fe *FieldError
		if prefix != "" && errors.As(err, &fe) {
			return nil, &FieldError{Field: prefix + fe.Field, Reason: fe.Reason}
		}
		return nil, err
	}
	return tx, nil
}

// ReadTransactionFile loads a YAML transaction and recomputes its id from its vins and vouts.
func ReadTransactionFile(fPath string) (*model.Transaction, error) {
	fileContent, err := os.ReadFile(fPath)
	if err != nil {
		return nil, err
	}
	var tx txTemplate
	if err := yaml.Unmarshal(fileContent, &tx); err != nil {
		return nil, errors.Wrapf(err, "unmarshal %s", fPath)
	}
	return tx.build("")
}

// ReadBlockFile loads a YAML block template. Any txid in the file is ignored;
// ids are always recomputed through CreateRawTx.
func ReadBlockFile(fPath string) (*model.Block, error) {
	fileContent, err := os.ReadFile(fPath)
	if err != nil {
		return nil, err
	}
	var tmpl blockTemplate
	if err := yaml.Unmarshal(fileContent, &tmpl); err != nil {
		return nil, errors.Wrapf(err, "unmarshal %s", fPath)
	}
	block := &model.Block{
		Height:       tmpl.Height,
		Difficulty:   tmpl.Difficulty,
		Transactions: make([]*model.Transaction, 0, len(tmpl.Transactions)),
	}
	for i, t := range tmpl.Transactions {
		if t == nil {
			return nil, errors.Wrapf(ErrNilTransaction, "transactions[%d]", i)
		}
		tx, err := t.build(fmt.Sprintf("transactions[%d].", i))
		if err != nil {
			return nil, err
		}
		block.Transactions = append(block.Transactions, tx)
	}
	return block, nil
}
