package randstr

import (
	"crypto/rand"
	"math/big"
)

const Base36 = "0123456789abcdefghijklmnopqrstuvwxyz"

type Generator struct {
	letters []byte
}

func New(letters []byte) *Generator {
	return &Generator{letters: letters}
}

func (g *Generator) GenerateRandomString(length int) string {
	b := make([]byte, length)
	max := big.NewInt(int64(len(g.letters)))
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			panic("randstr: failed to read random bytes: " + err.Error())
		}
		b[i] = g.letters[n.Int64()]
	}

	return string(b)
}
