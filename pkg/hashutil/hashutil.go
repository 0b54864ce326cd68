package hashutil

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"lukechampine.com/blake3"
)

type HashAlgo string

const (
	HashAlgoSHA256 HashAlgo = "sha256"
	HashAlgoBLAKE3 HashAlgo = "blake3"
)

// HashBytes returns the hash of bytes as a hex string using the specified algorithm.
func HashBytes(data []byte, algo HashAlgo) (string, error) {
	switch algo {
	case HashAlgoSHA256:
		sum := sha256.Sum256(data)
		return hex.EncodeToString(sum[:]), nil
	case HashAlgoBLAKE3:
		sum := blake3.Sum256(data)
		return hex.EncodeToString(sum[:]), nil
	default:
		return "", fmt.Errorf("unsupported hash algorithm: %s", algo)
	}
}

// Fingerprint is the blake3 digest of data, prefixed with the algorithm
// name, e.g. "blake3:af13...". Used to tag written records.
func Fingerprint(data []byte) string {
	sum := blake3.Sum256(data)
	return string(HashAlgoBLAKE3) + ":" + hex.EncodeToString(sum[:])
}

// Short truncates a fingerprint digest to n hex characters, dropping the
// algorithm prefix.
func Short(fingerprint string, n int) string {
	for i := 0; i < len(fingerprint); i++ {
		if fingerprint[i] == ':' {
			fingerprint = fingerprint[i+1:]
			break
		}
	}
	if n <= 0 || n >= len(fingerprint) {
		return fingerprint
	}
	return fingerprint[:n]
}
