package model

type Block struct {
	// Height of this block in the chain.
	Height int64 `yaml:"height" json:"height"`
	// How many leading '0' characters the block hash must have.
	Difficulty int `yaml:"difficulty" json:"difficulty"`
	// Transactions for this block. When present, the coinbase transaction comes first.
	Transactions []*Transaction `yaml:"transactions" json:"transactions"`
}
