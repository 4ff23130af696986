package utils

import (
	"fmt"

	"github.com/Luismorlan/misochain/model"
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/pkg/errors"
)

// ValidateVins checks that every input names a transaction and a non-negative index.
func ValidateVins(vins []model.Vin) error {
	for i := 0; i < len(vins); i++ {
		vin := &vins[i]
		if vin.Txid == "" {
			return &FieldError{Field: fmt.Sprintf("vins[%d].txid", i), Reason: "must not be empty"}
		}
		if vin.Index != nil && *vin.Index < 0 {
			return &FieldError{Field: fmt.Sprintf("vins[%d].index", i), Reason: "must not be negative"}
		}
	}
	return nil
}

// ValidateVouts checks that every output has a destination and a non-negative value.
func ValidateVouts(vouts []model.Vout) error {
	for i := 0; i < len(vouts); i++ {
		vout := &vouts[i]
		if vout.Address == "" {
			return &FieldError{Field: fmt.Sprintf("vouts[%d].address", i), Reason: "must not be empty"}
		}
		if vout.Value < 0 {
			return &FieldError{Field: fmt.Sprintf("vouts[%d].value", i), Reason: "must not be negative"}
		}
	}
	return nil
}

// CreateRawTx creates a new transaction whose id is the digest of its vins and
// vouts. The result is independent of time, so equal inputs give equal ids.
func CreateRawTx(vins []model.Vin, vouts []model.Vout) (*model.Transaction, error) {
	if err := ValidateVins(vins); err != nil {
		return nil, err
	}
	if err := ValidateVouts(vouts); err != nil {
		return nil, err
	}

	// Copy so the caller can't mutate the transaction behind its id.
	ins := make([]model.Vin, len(vins))
	for i, vin := range vins {
		ins[i] = vin
		if vin.Index != nil {
			idx := *vin.Index
			ins[i].Index = &idx
		}
	}
	outs := make([]model.Vout, len(vouts))
	copy(outs, vouts)

	return &model.Transaction{
		Txid:  GetHash(WithVins(ins...), WithVouts(outs...)),
		Vins:  ins,
		Vouts: outs,
	}, nil
}

// CreateCoinbaseTx creates the reward transaction of a block at height. It has
// no inputs and a single output paying amount to rewardAddress.
func CreateCoinbaseTx(rewardAddress string, amount int64, height int64) (*model.Transaction, error) {
	vouts := []model.Vout{{Address: rewardAddress, Value: amount}}
	if err := ValidateVouts(vouts); err != nil {
		return nil, err
	}
	return &model.Transaction{
		Txid: GetHash(
			WithRewardAddress(rewardAddress),
			WithRewardAmount(amount),
			WithHeight(height),
		),
		Vins:  []model.Vin{},
		Vouts: vouts,
	}, nil
}

// SigningDigest returns the digest that authorizes input idx of tx: the hash
// of that single vin, all of the vouts and the transaction's own id.
func SigningDigest(tx *model.Transaction, idx int) (string, error) {
	if tx == nil {
		return "", ErrNilTransaction
	}
	if idx < 0 || idx >= len(tx.Vins) {
		return "", errors.Wrapf(ErrIndexOutOfRange, "input %d of %d", idx, len(tx.Vins))
	}
	return GetHash(
		WithVins(tx.Vins[idx]),
		WithVouts(tx.Vouts...),
		WithTxids(tx.Txid),
	), nil
}

// SignTx signs input idx of tx with privKey, given either as hex or WIF.
func SignTx(tx *model.Transaction, idx int, privKey string) (*model.Witness, error) {
	if _, err := SigningDigest(tx, idx); err != nil {
		return nil, err
	}
	sk, err := ParsePrivateKey(privKey)
	if err != nil {
		return nil, err
	}
	return SignTxWithKey(tx, idx, sk)
}

// SignTxWithKey signs input idx of tx and returns the witness a verifier
// needs: the signed digest, the signature and the signer's public key.
func SignTxWithKey(tx *model.Transaction, idx int, sk *btcec.PrivateKey) (*model.Witness, error) {
	digest, err := SigningDigest(tx, idx)
	if err != nil {
		return nil, err
	}
	if _, err := checkPrivateKey(sk); err != nil {
		return nil, err
	}
	msg, err := HexToBytes(digest)
	if err != nil {
		return nil, err
	}

	sig, err := Sign(msg, sk)
	if err != nil {
		return nil, errors.Wrap(ErrSigningFailed, err.Error())
	}
	pk := sk.PubKey()
	if !Verify(msg, pk, sig) {
		return nil, ErrSigningFailed
	}

	return &model.Witness{
		Index:     idx,
		Digest:    digest,
		Signature: sig,
		PublicKey: PublicKeyToBytes(pk),
	}, nil
}

// VerifyWitness checks that w authorizes its input of tx.
func VerifyWitness(tx *model.Transaction, w *model.Witness) error {
	if w == nil {
		return errors.Wrap(ErrInvalidSignature, "witness is nil")
	}
	digest, err := SigningDigest(tx, w.Index)
	if err != nil {
		return err
	}
	if digest != w.Digest {
		return errors.Wrapf(ErrInvalidSignature, "digest mismatch for input %d", w.Index)
	}
	pk, err := BytesToPublicKey(w.PublicKey)
	if err != nil {
		return errors.Wrapf(ErrInvalidSignature, "bad public key: %v", err)
	}
	msg, err := HexToBytes(digest)
	if err != nil {
		return err
	}
	if !Verify(msg, pk, w.Signature) {
		return errors.Wrapf(ErrInvalidSignature, "input %d", w.Index)
	}
	return nil
}
