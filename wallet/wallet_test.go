package wallet

import (
	"path/filepath"
	"testing"

	"github.com/Luismorlan/misochain/model"
	"github.com/Luismorlan/misochain/utils"
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v2"
)

func GetTestWallet(t *testing.T) *Wallet {
	privateKey, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	w, err := NewWalletFromKey(privateKey)
	require.NoError(t, err)
	return w
}

func TestCreateTransaction(t *testing.T) {
	testWallet := GetTestWallet(t)
	vins := []model.Vin{model.NewVin("2334ad", 5), model.NewVin("99ff", 0)}
	vouts := []model.Vout{{Address: "receiver", Value: 10}, {Address: "change", Value: 40}}

	actualTx, witnesses, err := testWallet.CreateTransaction(vins, vouts)
	require.NoError(t, err)

	expectedTx, err := utils.CreateRawTx(vins, vouts)
	require.NoError(t, err)
	assert.Equal(t, expectedTx, actualTx)

	require.Len(t, witnesses, 2)
	for i, w := range witnesses {
		assert.Equal(t, i, w.Index)
		assert.Equal(t, testWallet.PublicKeyHex(), utils.BytesToHex(w.PublicKey))
		assert.NoError(t, utils.VerifyWitness(actualTx, w))
	}
}

func TestWitnessSurvivesYAML(t *testing.T) {
	testWallet := GetTestWallet(t)
	tx, witnesses, err := testWallet.CreateTransaction(
		[]model.Vin{model.NewVin("2334ad", 5)},
		[]model.Vout{{Address: "receiver", Value: 10}},
	)
	require.NoError(t, err)

	out, err := yaml.Marshal(witnesses[0])
	require.NoError(t, err)
	assert.Contains(t, string(out), "public_key: "+testWallet.PublicKeyHex()+"\n")
	assert.Contains(t, string(out), "signature: "+utils.BytesToHex(witnesses[0].Signature)+"\n")

	var decoded model.Witness
	require.NoError(t, yaml.Unmarshal(out, &decoded))
	assert.NoError(t, utils.VerifyWitness(tx, &decoded))
}

func TestCreateTransactionInvalid(t *testing.T) {
	testWallet := GetTestWallet(t)
	_, _, err := testWallet.CreateTransaction([]model.Vin{{Txid: ""}}, nil)
	var fe *utils.FieldError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "vins[0].txid", fe.Field)
}

func TestSignOutOfRange(t *testing.T) {
	testWallet := GetTestWallet(t)
	tx, err := utils.CreateRawTx([]model.Vin{model.NewVin("a", 0)}, nil)
	require.NoError(t, err)
	_, err = testWallet.Sign(tx, 1)
	assert.True(t, errors.Is(err, utils.ErrIndexOutOfRange))

	_, err = testWallet.SignAll(nil)
	assert.True(t, errors.Is(err, utils.ErrNilTransaction))
}

func TestNewWalletFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "key")
	created, err := NewWallet(path, true)
	require.NoError(t, err)
	loaded, err := NewWallet(path, false)
	require.NoError(t, err)
	assert.Equal(t, created.PublicKeyHex(), loaded.PublicKeyHex())

	a, err := created.Address()
	require.NoError(t, err)
	b, err := loaded.Address()
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestNewWalletFromKeyRejectsNil(t *testing.T) {
	_, err := NewWalletFromKey(nil)
	assert.True(t, errors.Is(err, utils.ErrInvalidPrivateKey))
}
