package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"hash/fnv"
	"strings"
)

func HashStringToUint64(s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return h.Sum64()
}

// NormalizeQuestion lowercases and collapses whitespace so that questions
// differing only in case or spacing share a cache entry.
func NormalizeQuestion(q string) string {
	return strings.Join(strings.Fields(strings.ToLower(q)), " ")
}

func QuestionHash(q string) string {
	sum := sha256.Sum256([]byte(NormalizeQuestion(q)))
	return hex.EncodeToString(sum[:])
}
