// Package zero provides helpers to wipe sensitive byte material from
// memory before it is released to the garbage collector.
package zero

import "math/big"

// Bytes clears all bytes in the passed slice.
func Bytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// BigInt clears the underlying words of the passed big integer and sets
// it to zero.
func BigInt(x *big.Int) {
	words := x.Bits()
	for i := range words {
		words[i] = 0
	}
	x.SetInt64(0)
}
