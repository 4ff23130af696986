package model

// Vin references an output of a previous transaction.
type Vin struct {
	// Hex id of the transaction that produced the referenced output.
	Txid string `yaml:"txid" json:"txid"`
	// Position of the output in that transaction. Nil when the call site has no index.
	Index *int64 `yaml:"index,omitempty" json:"index,omitempty"`
}

// NewVin creates an input that references output index of txid.
func NewVin(txid string, index int64) Vin {
	return Vin{Txid: txid, Index: &index}
}

// HasIndex reports whether the input carries an output index.
func (v Vin) HasIndex() bool {
	return v.Index != nil
}

type Vout struct {
	// Destination of the coins.
	Address string `yaml:"address" json:"address"`
	// How much value to transfer.
	Value int64 `yaml:"value" json:"value"`
}

type Transaction struct {
	// Digest over the vins and vouts. Only ever filled in by the transaction factory.
	Txid string `yaml:"txid,omitempty" json:"txid,omitempty"`
	// All inputs of this transaction.
	Vins []Vin `yaml:"vins" json:"vins"`
	// All outputs of this transaction.
	Vouts []Vout `yaml:"vouts" json:"vouts"`
}

// Witness authorizes a single input of a transaction.
type Witness struct {
	// Position of the signed input in Transaction.Vins.
	Index int `yaml:"index" json:"index"`
	// Hex digest that was signed.
	Digest string `yaml:"digest" json:"digest"`
	// DER encoded ECDSA signature over the digest.
	Signature HexBytes `yaml:"signature" json:"signature"`
	// Compressed secp256k1 public key of the signer.
	PublicKey HexBytes `yaml:"public_key" json:"public_key"`
}
