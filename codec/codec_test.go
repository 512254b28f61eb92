package codec

import (
	"bytes"
	"strings"
	"testing"
)

type payload struct {
	ID    string
	Score int
}

func TestMsgpackRoundTrip(t *testing.T) {
	c := Msgpack[payload]{}
	b, err := c.Encode(payload{ID: "p1", Score: 7})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := c.Decode(b)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.ID != "p1" || got.Score != 7 {
		t.Fatalf("got=%+v", got)
	}
}

func TestCBORRoundTripBothModes(t *testing.T) {
	for _, deterministic := range []bool{false, true} {
		c := MustCBOR[payload](deterministic)
		b, err := c.Encode(payload{ID: "p1", Score: 7})
		if err != nil {
			t.Fatalf("deterministic=%v Encode: %v", deterministic, err)
		}
		got, err := c.Decode(b)
		if err != nil {
			t.Fatalf("deterministic=%v Decode: %v", deterministic, err)
		}
		if got.ID != "p1" || got.Score != 7 {
			t.Fatalf("deterministic=%v got=%+v", deterministic, got)
		}
	}
}

func TestLimitCodecRejectsOversized(t *testing.T) {
	c := LimitCodec[string]{Inner: String{}, MaxDecode: 4}

	if got, err := c.Decode([]byte("ok")); err != nil || got != "ok" {
		t.Fatalf("got=%q err=%v, want pass-through under the limit", got, err)
	}
	_, err := c.Decode([]byte("way past the limit"))
	if err == nil || !strings.Contains(err.Error(), "payload too large") {
		t.Fatalf("err=%v want payload-too-large", err)
	}

	// Encode is never limited.
	if b, err := c.Encode("way past the limit"); err != nil || len(b) == 0 {
		t.Fatalf("Encode: b=%q err=%v", b, err)
	}
}

func TestIdentityCodecs(t *testing.T) {
	raw := []byte{0x00, 0xff, 0x42}
	if b, err := (Bytes{}).Encode(raw); err != nil || !bytes.Equal(b, raw) {
		t.Fatalf("Bytes.Encode=%v err=%v", b, err)
	}
	if b, err := (Bytes{}).Decode(raw); err != nil || !bytes.Equal(b, raw) {
		t.Fatalf("Bytes.Decode=%v err=%v", b, err)
	}
	if s, err := (String{}).Decode([]byte("héllo")); err != nil || s != "héllo" {
		t.Fatalf("String.Decode=%q err=%v", s, err)
	}
}
