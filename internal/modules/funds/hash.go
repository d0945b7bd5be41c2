// Package funds provides fund records, identity hashing and point-in-time
// valuation.
package funds

import (
	"crypto/md5"
	"encoding/hex"
)

// Hash derives the stable fund identifier from a display name. Price
// observations are keyed by this hash rather than the raw name, so the same
// fund scraped under a slightly different display name still merges into one
// series once the name is normalised upstream.
//
// The derivation is md5(name + salt) and must not change: cached price rows
// are keyed by it.
func Hash(name, salt string) string {
	sum := md5.Sum([]byte(name + salt))
	return hex.EncodeToString(sum[:])
}
