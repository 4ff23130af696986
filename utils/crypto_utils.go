package utils

import (
	"crypto/sha256"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/pkg/errors"
)

const privateKeyLen = 32

// GenerateKeyPair generates a new secp256k1 key pair
func GenerateKeyPair() (*btcec.PrivateKey, *btcec.PublicKey, error) {
	sk, err := btcec.NewPrivateKey()
	if err != nil {
		return nil, nil, err
	}
	return sk, sk.PubKey(), nil
}

// PrivateKeyToHex encodes the raw 32 byte scalar as hex.
func PrivateKeyToHex(sk *btcec.PrivateKey) string {
	return BytesToHex(sk.Serialize())
}

// PrivateKeyToWIF encodes the key in wallet import format for mainnet, compressed.
func PrivateKeyToWIF(sk *btcec.PrivateKey) (string, error) {
	wif, err := btcutil.NewWIF(sk, &chaincfg.MainNetParams, true)
	if err != nil {
		return "", err
	}
	return wif.String(), nil
}

// ParsePrivateKey accepts either a WIF string or a 32 byte hex scalar.
func ParsePrivateKey(s string) (*btcec.PrivateKey, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, errors.Wrap(ErrInvalidPrivateKey, "key is empty")
	}

	if wif, err := btcutil.DecodeWIF(s); err == nil {
		return checkPrivateKey(wif.PrivKey)
	}

	raw, err := HexToBytes(s)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidPrivateKey, "neither WIF nor hex")
	}
	if len(raw) != privateKeyLen {
		return nil, errors.Wrapf(ErrInvalidPrivateKey, "expected %d bytes, got %d", privateKeyLen, len(raw))
	}
	sk, _ := btcec.PrivKeyFromBytes(raw)
	return checkPrivateKey(sk)
}

// A zero scalar (including one that overflowed the group order to zero) cannot sign.
func checkPrivateKey(sk *btcec.PrivateKey) (*btcec.PrivateKey, error) {
	if sk == nil || sk.Key.IsZero() {
		return nil, errors.Wrap(ErrInvalidPrivateKey, "key is zero")
	}
	return sk, nil
}

// PublicKeyToBytes returns the compressed encoding of pk.
func PublicKeyToBytes(pk *btcec.PublicKey) []byte {
	return pk.SerializeCompressed()
}

// BytesToPublicKey parses a compressed or uncompressed public key.
func BytesToPublicKey(pub []byte) (*btcec.PublicKey, error) {
	return btcec.ParsePubKey(pub)
}

// PublicKeyToAddress derives the mainnet P2PKH address of pk.
func PublicKeyToAddress(pk *btcec.PublicKey) (string, error) {
	addr, err := btcutil.NewAddressPubKeyHash(btcutil.Hash160(pk.SerializeCompressed()), &chaincfg.MainNetParams)
	if err != nil {
		return "", err
	}
	return addr.EncodeAddress(), nil
}

// Hash message using SHA256
func SHA256(msg []byte) []byte {
	sum := sha256.Sum256(msg)
	return sum[:]
}

// Sign a message's SHA256 digest with provided private key. The signature is DER encoded.
func Sign(msg []byte, sk *btcec.PrivateKey) ([]byte, error) {
	if _, err := checkPrivateKey(sk); err != nil {
		return nil, err
	}
	sig := ecdsa.Sign(sk, SHA256(msg))
	return sig.Serialize(), nil
}

// Verify the given signature matches the message.
func Verify(msg []byte, pk *btcec.PublicKey, signature []byte) bool {
	if pk == nil {
		return false
	}
	sig, err := ecdsa.ParseDERSignature(signature)
	if err != nil {
		return false
	}
	return sig.Verify(SHA256(msg), pk)
}
