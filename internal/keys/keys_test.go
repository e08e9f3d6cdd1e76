package keys

import (
	"encoding/json"
	"testing"
)

func TestGenerateProducesUsableKeyPair(t *testing.T) {
	kp, err := Generate()
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if len(kp.Private) != 64 {
		t.Errorf("private key length = %d, want 64", len(kp.Private))
	}
	if len(kp.Public) != 32 {
		t.Errorf("public key length = %d, want 32", len(kp.Public))
	}
	if kp.Scheme != SignatureScheme {
		t.Errorf("scheme = %q, want %q", kp.Scheme, SignatureScheme)
	}
}

func TestSignVerify(t *testing.T) {
	kp, err := Generate()
	if err != nil {
		t.Fatal(err)
	}
	payload := []byte("advertise")
	sig := kp.Sign(payload)
	if !kp.Verify(payload, sig) {
		t.Error("valid signature rejected")
	}
	if kp.Verify([]byte("tampered"), sig) {
		t.Error("signature over different payload accepted")
	}
}

func TestJSONRoundtripIsHex(t *testing.T) {
	kp, err := Generate()
	if err != nil {
		t.Fatal(err)
	}
	data, err := json.Marshal(kp)
	if err != nil {
		t.Fatal(err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}
	pub, ok := decoded["public"].(string)
	if !ok {
		t.Fatalf("public field is not a string: %v", decoded["public"])
	}
	if pub != kp.Public.String() {
		t.Errorf("public hex = %q, want %q", pub, kp.Public.String())
	}

	var round SignatureKeyPair
	if err := json.Unmarshal(data, &round); err != nil {
		t.Fatal(err)
	}
	if !round.PrivateKey().Equal(kp.PrivateKey()) {
		t.Error("private key did not round-trip")
	}
}

func TestShortFingerprint(t *testing.T) {
	kp, err := Generate()
	if err != nil {
		t.Fatal(err)
	}
	fp := kp.ShortFingerprint()
	if len(fp) != 3 {
		t.Errorf("fingerprint length = %d, want 3", len(fp))
	}
	if fp != kp.Public.String()[:3] {
		t.Errorf("fingerprint = %q, want prefix of %q", fp, kp.Public.String())
	}
}
