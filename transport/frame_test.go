package transport_test

import (
	"bytes"
	"testing"

	"github.com/ConnectedSystemsLab/StarCDN-Simulator/transport"
)

// S3 — exact byte sequence from spec §8.
func TestFrameS3EncodeExactBytes(t *testing.T) {
	got, err := transport.Encode("CHK ", []byte("12345"))
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	want := []byte{
		0x43, 0x48, 0x4B, 0x20,
		0x00, 0x00, 0x00, 0x05,
		0x31, 0x32, 0x33, 0x34, 0x35,
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("Encode(\"CHK \", \"12345\") = % X, want % X", got, want)
	}
}

func TestFrameRoundTrip(t *testing.T) {
	verbs := []string{"CONF", "ACK ", "REQ ", "CHK ", "PREF", "GET ", "ISL ", "REGR", "KILL"}
	payloads := [][]byte{
		nil,
		{},
		[]byte("x"),
		[]byte(`{"a":1,"b":"hello world"}`),
		bytes.Repeat([]byte{0xAB}, 4096),
	}
	for _, v := range verbs {
		for _, p := range payloads {
			encoded, err := transport.Encode(v, p)
			if err != nil {
				t.Fatalf("Encode(%q, ...): %v", v, err)
			}
			gotVerb, gotPayload, err := transport.Decode(bytes.NewReader(encoded))
			if err != nil {
				t.Fatalf("Decode after Encode(%q): %v", v, err)
			}
			if gotVerb != v {
				t.Fatalf("verb round-trip: got %q, want %q", gotVerb, v)
			}
			if len(gotPayload) != len(p) || (len(p) > 0 && !bytes.Equal(gotPayload, p)) {
				t.Fatalf("payload round-trip for verb %q: got %v, want %v", v, gotPayload, p)
			}
		}
	}
}

func TestFrameRejectsShortVerb(t *testing.T) {
	if _, err := transport.Encode("AB", nil); err == nil {
		t.Fatal("expected error for non-4-byte verb")
	}
}

func TestFrameZeroLengthPayload(t *testing.T) {
	encoded, err := transport.Encode("ACK ", nil)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if len(encoded) != 8 {
		t.Fatalf("zero-payload frame length = %d, want 8", len(encoded))
	}
	verb, payload, err := transport.Decode(bytes.NewReader(encoded))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if verb != "ACK " || len(payload) != 0 {
		t.Fatalf("Decode zero-length frame = (%q, %v)", verb, payload)
	}
}
