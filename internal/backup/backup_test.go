package backup

import (
	"testing"

	"github.com/germtb/sgmagent/internal/keys"
)

func TestExportImportRoundtripWithPassphrase(t *testing.T) {
	kp, err := keys.Generate()
	if err != nil {
		t.Fatal(err)
	}

	pemText, err := ExportIdentity(kp, []byte("correct horse battery staple"))
	if err != nil {
		t.Fatal(err)
	}

	imported, err := ImportIdentity(pemText, []byte("correct horse battery staple"))
	if err != nil {
		t.Fatal(err)
	}
	if imported.Public.String() != kp.Public.String() {
		t.Errorf("imported public key = %s, want %s", imported.Public, kp.Public)
	}
	if imported.Private.String() != kp.Private.String() {
		t.Error("imported private key does not match the exported one")
	}
}

func TestImportWrongPassphraseFails(t *testing.T) {
	kp, err := keys.Generate()
	if err != nil {
		t.Fatal(err)
	}
	pemText, err := ExportIdentity(kp, []byte("correct horse battery staple"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ImportIdentity(pemText, []byte("wrong passphrase")); err == nil {
		t.Fatal("expected import with the wrong passphrase to fail")
	}
}

func TestExportUnencryptedRoundtrip(t *testing.T) {
	kp, err := keys.Generate()
	if err != nil {
		t.Fatal(err)
	}
	pemText, err := ExportIdentity(kp, nil)
	if err != nil {
		t.Fatal(err)
	}
	imported, err := ImportIdentity(pemText, nil)
	if err != nil {
		t.Fatal(err)
	}
	if imported.Public.String() != kp.Public.String() {
		t.Error("imported public key does not match the exported one")
	}
}
