package memorytypes

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/synapsehq/synapse/internal/domain"
)

const idSuffixAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
const idSuffixLength = 9

// newID generates "{prefix}_{unixMillis}_{9-char base36 suffix}", the
// format of every memory id the memory-type façades create. Connection ids
// are plain uuids.
func newID(t domain.MemoryType) string {
	return fmt.Sprintf("%s_%d_%s", t.TypePrefix(), time.Now().UnixMilli(), randomSuffix())
}

func randomSuffix() string {
	b := make([]byte, idSuffixLength)
	for i := range b {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(idSuffixAlphabet))))
		if err != nil {
			// crypto/rand failure is unrecoverable; panicking here matches the
			// package's "this can never happen in practice" id-generation path.
			panic(fmt.Sprintf("memorytypes: random suffix: %v", err))
		}
		b[i] = idSuffixAlphabet[n.Int64()]
	}
	return string(b)
}
