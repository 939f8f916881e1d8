package journal

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDigest_Empty(t *testing.T) {
	sum := sha256.Sum256([]byte(DigestDomain + "\x00"))
	assert.Equal(t, hex.EncodeToString(sum[:]), Digest(nil))
}

func TestDigest_StableAndSensitive(t *testing.T) {
	a := []Entry{
		{Seq: 1, At: 0, Kind: KindScore, Signal: -1, Value: "0"},
		{Seq: 2, At: 800 * time.Millisecond, Kind: KindActivate, Signal: 2},
	}
	b := append([]Entry(nil), a...)

	assert.Equal(t, Digest(a), Digest(b))
	assert.Len(t, Digest(a), 64)

	b[1].At = 801 * time.Millisecond
	assert.NotEqual(t, Digest(a), Digest(b), "timing is part of identity")

	b[1].At = a[1].At
	b[1].Signal = 3
	assert.NotEqual(t, Digest(a), Digest(b))
}

func TestDigest_NormalisesValues(t *testing.T) {
	composed := []Entry{{Seq: 1, Kind: KindStatus, Signal: -1, Value: "d\u00f3"}}
	decomposed := []Entry{{Seq: 1, Kind: KindStatus, Signal: -1, Value: "do\u0301"}}
	assert.Equal(t, Digest(composed), Digest(decomposed))
}
