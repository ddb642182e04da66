package wire

import (
	"crypto/rc4"
	"testing"
)

func TestTryDeobfuscatePassesThroughPlaintext(t *testing.T) {
	raw := []byte{byte(ProtoKademliaHeader), byte(OpBootstrapReq)}
	kp := StaticKeyProvider{Seeds: [][]byte{{1, 2, 3}}}

	got := TryDeobfuscate(raw, kp, "1.2.3.4:4672")
	if &got[0] != &raw[0] {
		t.Error("plaintext packet should be returned unmodified")
	}
}

func TestTryDeobfuscateRecoversObfuscatedPacket(t *testing.T) {
	seed := []byte("local-kad-id-16b")
	plain := []byte{byte(ProtoKademliaHeader), byte(OpBootstrapResp), 1, 2, 3}

	cipher, err := rc4.NewCipher(DeriveKey(seed))
	if err != nil {
		t.Fatalf("rc4.NewCipher: %v", err)
	}
	obfuscated := make([]byte, len(plain))
	cipher.XORKeyStream(obfuscated, plain)

	kp := StaticKeyProvider{Seeds: [][]byte{[]byte("wrong-seed"), seed}}
	got := TryDeobfuscate(obfuscated, kp, "1.2.3.4:4672")

	if len(got) != len(plain) {
		t.Fatalf("len(got) = %d, want %d", len(got), len(plain))
	}
	for i := range plain {
		if got[i] != plain[i] {
			t.Fatalf("got[%d] = 0x%02x, want 0x%02x", i, got[i], plain[i])
		}
	}
}

func TestTryDeobfuscateWithoutMatchReturnsInput(t *testing.T) {
	raw := []byte{0x00, 0x01, 0x02}
	got := TryDeobfuscate(raw, StaticKeyProvider{Seeds: [][]byte{{9}}}, "addr")
	if &got[0] != &raw[0] {
		t.Error("unmatched packet should be returned as-is for the caller to reject")
	}
}
