package skein

import "math/bits"

// BlockBytes is the Threefish-1024 block size and the Skein-1024 internal
// state size, in bytes.
const BlockBytes = 128

const blockWords = 16

// c240 is the Threefish key-schedule parity constant from Skein v1.3 Table 3.
const c240 = 0x1BD11BDAA9FC1A22

// rotationConstants holds the Threefish-1024 MIX rotation amounts, Skein
// v1.3 Table 4. Row d is reused for round d, d+8, d+16, ...
var rotationConstants = [8][8]uint{
	{24, 13, 8, 47, 8, 17, 22, 37},
	{38, 19, 10, 55, 49, 18, 23, 52},
	{33, 4, 51, 13, 34, 41, 59, 17},
	{5, 20, 48, 41, 47, 28, 16, 25},
	{41, 9, 37, 31, 12, 47, 44, 30},
	{16, 34, 56, 51, 4, 53, 42, 41},
	{31, 44, 47, 46, 19, 42, 44, 25},
	{9, 48, 35, 52, 23, 31, 37, 20},
}

// wordPermutation is the Threefish-1024 word permutation applied after the
// 8 MIX operations of every round: output word i comes from mixed word
// wordPermutation[i].
var wordPermutation = [16]int{0, 9, 2, 13, 6, 11, 4, 15, 10, 7, 12, 3, 14, 5, 8, 1}

var mixPairs = [8][2]int{{0, 1}, {2, 3}, {4, 5}, {6, 7}, {8, 9}, {10, 11}, {12, 13}, {14, 15}}

const rounds = 80
const subkeyPeriod = 4
const numSubkeys = rounds/subkeyPeriod + 1 // 21

// extendedKey appends the Threefish parity word to a 16-word key.
func extendedKey(key [blockWords]uint64) [blockWords + 1]uint64 {
	var ek [blockWords + 1]uint64
	copy(ek[:blockWords], key[:])
	x := uint64(c240)
	for _, k := range key {
		x ^= k
	}
	ek[blockWords] = x
	return ek
}

// extendedTweak appends the XOR of the two tweak words.
func extendedTweak(tweak [2]uint64) [3]uint64 {
	return [3]uint64{tweak[0], tweak[1], tweak[0] ^ tweak[1]}
}

// subkey computes the s-th round-key injected into the Threefish state,
// per the generalized Threefish key schedule (Skein v1.3 §3.3).
func subkey(ek [blockWords + 1]uint64, et [3]uint64, s int) [blockWords]uint64 {
	var e [blockWords]uint64
	for i := 0; i < blockWords; i++ {
		e[i] = ek[(s+i)%(blockWords+1)]
	}
	e[blockWords-3] += et[s%3]
	e[blockWords-2] += et[(s+1)%3]
	e[blockWords-1] += uint64(s)
	return e
}

func mix(x0, x1 uint64, r uint) (uint64, uint64) {
	y0 := x0 + x1
	y1 := bits.RotateLeft64(x1, int(r)) ^ y0
	return y0, y1
}

// mixRound applies the 8 MIX operations for round d and the subsequent
// word permutation.
func mixRound(v [blockWords]uint64, d int) [blockWords]uint64 {
	r := rotationConstants[d%8]
	var m [blockWords]uint64
	for i, p := range mixPairs {
		m[p[0]], m[p[1]] = mix(v[p[0]], v[p[1]], r[i])
	}
	var out [blockWords]uint64
	for i := 0; i < blockWords; i++ {
		out[i] = m[wordPermutation[i]]
	}
	return out
}

// threefish1024Encrypt encrypts one 1024-bit block under the given 1024-bit
// key and 128-bit tweak, running the full 80-round Threefish-1024 schedule.
func threefish1024Encrypt(plain, key [blockWords]uint64, tweak [2]uint64) [blockWords]uint64 {
	ek := extendedKey(key)
	et := extendedTweak(tweak)

	v := plain
	e0 := subkey(ek, et, 0)
	for i := range v {
		v[i] += e0[i]
	}

	for d := 0; d < rounds; d++ {
		v = mixRound(v, d)
		if (d+1)%subkeyPeriod == 0 {
			s := (d + 1) / subkeyPeriod
			es := subkey(ek, et, s)
			for i := range v {
				v[i] += es[i]
			}
		}
	}
	return v
}
