package users

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

const medIDAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// GenerateMedID builds a MED ID: a CT or DR prefix, the last six digits of
// the creation time in unix milliseconds, and three random base36 characters.
func GenerateMedID(userType string, now time.Time) string {
	prefix := "CT"
	if userType == TypeDoctor {
		prefix = "DR"
	}

	millis := fmt.Sprintf("%d", now.UnixMilli())
	if len(millis) > 6 {
		millis = millis[len(millis)-6:]
	}

	suffix := make([]byte, 3)
	max := big.NewInt(int64(len(medIDAlphabet)))
	for i := range suffix {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand only fails when the OS entropy source is broken.
			suffix[i] = medIDAlphabet[int(now.UnixNano())%len(medIDAlphabet)]
			continue
		}
		suffix[i] = medIDAlphabet[n.Int64()]
	}

	return prefix + millis + string(suffix)
}
