package hpack

import "testing"

func TestHuffman_RoundTrip(t *testing.T) {
	// RFC 7541 C.4.1's example string.
	inputs := []string{
		"www.example.com",
		"no-cache",
		"custom-key",
		"custom-value",
		"",
		"a",
	}

	for _, in := range inputs {
		encoded := EncodeHuffman([]byte(in))
		decoded, err := DecodeHuffman(encoded)
		if err != nil {
			t.Fatalf("%q: decode failed: %v", in, err)
		}
		if string(decoded) != in {
			t.Errorf("%q: round-trip mismatch, got %q", in, decoded)
		}
	}
}

func TestHuffman_KnownEncoding(t *testing.T) {
	// RFC 7541 C.4.1: "www.example.com" Huffman-encodes to this exact
	// sequence.
	want := []byte{
		0xf1, 0xe3, 0xc2, 0xe5, 0xf2, 0x3a, 0x6b, 0xa0,
		0xab, 0x90, 0xf4, 0xff,
	}
	got := EncodeHuffman([]byte("www.example.com"))
	if len(got) != len(want) {
		t.Fatalf("unexpected length: got %d want %d (%x)", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("byte %d mismatch: got %x want %x (full: %x)", i, got[i], want[i], got)
		}
	}
}

func TestHuffman_InvalidPaddingRejected(t *testing.T) {
	encoded := EncodeHuffman([]byte("a"))
	// Flip the padding bits of the last byte so they are no longer all-ones.
	corrupted := append([]byte{}, encoded...)
	corrupted[len(corrupted)-1] &^= 0x01
	if _, err := DecodeHuffman(corrupted); err == nil {
		t.Error("expected padding validation error")
	}
}
