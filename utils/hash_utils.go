package utils

import (
	"strings"

	"github.com/Luismorlan/misochain/model"
)

// optionalInt renders as the empty string until it is set.
type optionalInt struct {
	v   int64
	set bool
}

func (o optionalInt) String() string {
	if !o.set {
		return ""
	}
	return Int64ToString(o.v)
}

// hashInput is every component that can take part in a hash preimage. A fresh
// one is built for each GetHash call.
type hashInput struct {
	vins          []model.Vin
	vouts         []model.Vout
	txids         []string
	rewardAddress string
	rewardAmount  optionalInt
	prevBlockHash string
	height        optionalInt
	timestamp     optionalInt
	difficulty    optionalInt
	nonce         optionalInt
}

// HashOption supplies one component of a hash preimage.
type HashOption func(*hashInput)

func WithVins(vins ...model.Vin) HashOption {
	return func(h *hashInput) { h.vins = vins }
}

func WithVouts(vouts ...model.Vout) HashOption {
	return func(h *hashInput) { h.vouts = vouts }
}

func WithTxids(txids ...string) HashOption {
	return func(h *hashInput) { h.txids = txids }
}

// WithRewardAddress sets the coinbase reward address.
func WithRewardAddress(addr string) HashOption {
	return func(h *hashInput) { h.rewardAddress = addr }
}

// WithRewardAmount sets the coinbase reward amount.
func WithRewardAmount(amount int64) HashOption {
	return func(h *hashInput) { h.rewardAmount = optionalInt{v: amount, set: true} }
}

func WithPrevBlockHash(hash string) HashOption {
	return func(h *hashInput) { h.prevBlockHash = hash }
}

func WithHeight(height int64) HashOption {
	return func(h *hashInput) { h.height = optionalInt{v: height, set: true} }
}

// WithTimestamp sets the block timestamp in unix seconds.
func WithTimestamp(ts int64) HashOption {
	return func(h *hashInput) { h.timestamp = optionalInt{v: ts, set: true} }
}

func WithDifficulty(difficulty int) HashOption {
	return func(h *hashInput) { h.difficulty = optionalInt{v: int64(difficulty), set: true} }
}

func WithNonce(nonce int64) HashOption {
	return func(h *hashInput) { h.nonce = optionalInt{v: nonce, set: true} }
}

// Preimage returns the canonical string that GetHash digests.
// Layout: vins + rewards + txids + block fields + vouts. Every participant
// must reproduce this order exactly to agree on a hash.
func Preimage(opts ...HashOption) string {
	in := hashInput{}
	for _, opt := range opts {
		opt(&in)
	}

	var sb strings.Builder

	// vins: txid followed by the output index, if any.
	for i := 0; i < len(in.vins); i++ {
		vin := &in.vins[i]
		sb.WriteString(vin.Txid)
		if vin.Index != nil {
			sb.WriteString(Int64ToString(*vin.Index))
		}
	}

	// rewards
	sb.WriteString(in.rewardAddress)
	sb.WriteString(in.rewardAmount.String())

	for _, txid := range in.txids {
		sb.WriteString(txid)
	}

	// block fields
	sb.WriteString(in.prevBlockHash)
	sb.WriteString(in.height.String())
	sb.WriteString(in.difficulty.String())
	sb.WriteString(in.nonce.String())
	sb.WriteString(in.timestamp.String())

	// vouts: address followed by value.
	for i := 0; i < len(in.vouts); i++ {
		vout := &in.vouts[i]
		sb.WriteString(vout.Address)
		sb.WriteString(Int64ToString(vout.Value))
	}

	return sb.String()
}

// GetHash returns the hex SHA-256 digest of the preimage built from opts.
// Components that are not supplied contribute nothing to the preimage.
func GetHash(opts ...HashOption) string {
	return BytesToHex(SHA256([]byte(Preimage(opts...))))
}
