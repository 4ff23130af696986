package model

import (
	"encoding/hex"
	"encoding/json"
)

// HexBytes is binary data that is written as a hex string in YAML and JSON
// documents, so signatures and keys can be read and pasted back.
type HexBytes []byte

func (b HexBytes) String() string {
	return hex.EncodeToString(b)
}

func (b HexBytes) MarshalYAML() (interface{}, error) {
	return b.String(), nil
}

func (b *HexBytes) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	return b.setHex(s)
}

func (b HexBytes) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.String())
}

func (b *HexBytes) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	return b.setHex(s)
}

func (b *HexBytes) setHex(s string) error {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return err
	}
	*b = raw
	return nil
}
