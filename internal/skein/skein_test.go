package skein

import (
	"bytes"
	"testing"
)

func TestSelfTest(t *testing.T) {
	if err := SelfTest(); err != nil {
		t.Fatalf("SelfTest() error = %v", err)
	}
}

func TestSum1024Deterministic(t *testing.T) {
	msg := []byte("the quick brown fox jumps over the lazy dog")
	a := Sum1024(1024, msg)
	b := Sum1024(1024, msg)
	if !bytes.Equal(a, b) {
		t.Fatal("Sum1024 is not deterministic")
	}
}

func TestSum1024DiffersOnInputChange(t *testing.T) {
	a := Sum1024(512, []byte("password"))
	b := Sum1024(512, []byte("Password"))
	if bytes.Equal(a, b) {
		t.Fatal("single-bit input change did not change digest")
	}
}

func TestSizeMatchesOutputBits(t *testing.T) {
	for _, bits := range []int{64, 128, 512, 1024, 2048} {
		h := New1024(bits)
		if got, want := h.Size(), bits/8; got != want {
			t.Errorf("Size() for %d bits = %d, want %d", bits, got, want)
		}
		sum := h.Sum(nil)
		if len(sum) != bits/8 {
			t.Errorf("len(Sum()) for %d bits = %d, want %d", bits, len(sum), bits/8)
		}
	}
}

func TestWriteChunkingIndependence(t *testing.T) {
	msg := bytes.Repeat([]byte{0xAB}, 1000)

	oneShot := New1024(1024)
	oneShot.Write(msg)
	want := oneShot.Sum(nil)

	byteAtATime := New1024(1024)
	for _, b := range msg {
		byteAtATime.Write([]byte{b})
	}
	got := byteAtATime.Sum(nil)

	if !bytes.Equal(want, got) {
		t.Fatal("digest depends on Write chunk sizes")
	}
}

func TestSumDoesNotMutateState(t *testing.T) {
	h := New1024(256)
	h.Write([]byte("part one "))
	first := h.Sum(nil)
	second := h.Sum(nil)
	if !bytes.Equal(first, second) {
		t.Fatal("repeated Sum() without Write changed the digest")
	}
	h.Write([]byte("part two"))
	third := h.Sum(nil)
	if bytes.Equal(first, third) {
		t.Fatal("Write after Sum had no effect")
	}
}

func TestReset(t *testing.T) {
	h := New1024(256)
	h.Write([]byte("some data"))
	withData := h.Sum(nil)

	h.Reset()
	empty := h.Sum(nil)

	fresh := Sum1024(256, nil)
	if !bytes.Equal(empty, fresh) {
		t.Fatal("Reset() did not restore the post-config state")
	}
	if bytes.Equal(withData, empty) {
		t.Fatal("Reset() did not clear absorbed data")
	}
}

func TestPRFIsLongAndDeterministic(t *testing.T) {
	seed := []byte("otp-bytes-placeholder||password")

	a := NewPRF(seed)
	b := NewPRF(seed)

	for i := 0; i < prfBufBytes*3; i++ {
		x, y := a.NextByte(), b.NextByte()
		if x != y {
			t.Fatalf("PRF streams from identical seeds diverge at byte %d", i)
		}
	}
}

func TestPRFDiffersAcrossSeeds(t *testing.T) {
	a := NewPRF([]byte("seed-a"))
	b := NewPRF([]byte("seed-b"))

	sameRun := 0
	for i := 0; i < 64; i++ {
		if a.NextByte() == b.NextByte() {
			sameRun++
		}
	}
	if sameRun == 64 {
		t.Fatal("PRF streams from different seeds are identical")
	}
}

func TestPRFRefillContinuesStream(t *testing.T) {
	p := NewPRF([]byte("refill-seed"))
	first := p.Next(prfBufBytes)
	second := p.Next(16)
	if bytes.Equal(first[:16], second) {
		t.Fatal("PRF stream repeated itself across a refill boundary")
	}
}
