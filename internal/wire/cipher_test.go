package wire

import (
	"bytes"
	"testing"
)

func TestTranscodeRoundTrip(t *testing.T) {
	ciphers := []uint32{1, 2, 12345, 0xDEADBEEF, 7}
	payload := []byte("the quick brown fox jumps over the lazy dog")

	for _, cipher := range ciphers {
		buf := append([]byte(nil), payload...)
		Transcode(buf, cipher)
		if bytes.Equal(buf, payload) {
			t.Fatalf("cipher %d: transcode did not change payload", cipher)
		}
		Transcode(buf, cipher)
		if !bytes.Equal(buf, payload) {
			t.Fatalf("cipher %d: round trip did not recover original payload", cipher)
		}
	}
}

func TestTranscodeZeroCipherIsNoop(t *testing.T) {
	payload := []byte("unchanged")
	buf := append([]byte(nil), payload...)
	Transcode(buf, 0)
	if !bytes.Equal(buf, payload) {
		t.Fatalf("expected zero cipher to leave payload unchanged")
	}
}

func TestFNV1aInitialHashConstant(t *testing.T) {
	if fnvInitialHash != 2577035731 {
		t.Fatalf("expected initial hash 2577035731, got %d", fnvInitialHash)
	}
}
