package amul

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

const nonceBound = 1_000_000_000

// Signature derives the per-request tid token from the stable store
// identifier, the wall-clock instant, a random nonce, and the session
// seed (empty until the session is identified). The site accepts the
// token only when the digest covers exactly this composite, in this
// order.
func Signature(storeID, seed string, now time.Time, nonce int64) string {
	ms := now.UnixMilli()
	composite := fmt.Sprintf("%s:%d:%d:%s", storeID, ms, nonce, seed)
	sum := sha256.Sum256([]byte(composite))
	return fmt.Sprintf("%d:%d:%s", ms, nonce, hex.EncodeToString(sum[:]))
}

// signature computes a fresh token for the next outbound request.
// Never cached: the token embeds the current time.
func (c *Client) signature(seed string) string {
	return Signature(c.storeID, seed, c.nowFunc(), c.randFunc(nonceBound))
}
