package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"
)

// GenerateBookingReference returns a human-readable booking reference of the
// form "JTS-YYMMDD-XXXX". Falls back to a timestamp-only reference if the
// random source is unavailable, so submission never fails on entropy.
func GenerateBookingReference() string {
	const alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	now := time.Now()

	var b strings.Builder
	for i := 0; i < 4; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(alphabet))))
		if err != nil {
			return fmt.Sprintf("JTS-%d", now.UnixMilli())
		}
		b.WriteByte(alphabet[n.Int64()])
	}

	return fmt.Sprintf("JTS-%s-%s", now.Format("060102"), b.String())
}
