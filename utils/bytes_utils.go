package utils

import (
	"encoding/hex"
	"strconv"
)

func BytesToHex(bytes []byte) string {
	return hex.EncodeToString(bytes)
}

func HexToBytes(str string) ([]byte, error) {
	bytes, err := hex.DecodeString(str)
	if err != nil {
		return nil, err
	}
	return bytes, nil
}

// Int64ToString renders i in base 10 with no separators, the form used in hash preimages.
func Int64ToString(i int64) string {
	return strconv.FormatInt(i, 10)
}
