package crypto

import "testing"

func TestSignVerify_RoundTrip(t *testing.T) {
	kp, err := GenerateSigningKeyPair()
	if err != nil {
		t.Fatalf("generate signing key pair: %v", err)
	}
	payload := []byte(`{"publicKey":"test-public-key-base64","profile":{}}`)

	sig, err := Sign(kp.Private, payload)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if !Verify(kp.Public, payload, sig) {
		t.Fatal("expected signature to verify against its own public key")
	}
}

func TestVerify_RejectsTamperedPayload(t *testing.T) {
	kp, _ := GenerateSigningKeyPair()
	sig, _ := Sign(kp.Private, []byte("original"))

	if Verify(kp.Public, []byte("tampered"), sig) {
		t.Fatal("verification must fail for a different payload")
	}
}

func TestVerify_RejectsWrongKey(t *testing.T) {
	kp, _ := GenerateSigningKeyPair()
	other, _ := GenerateSigningKeyPair()
	sig, _ := Sign(kp.Private, []byte("payload"))

	if Verify(other.Public, []byte("payload"), sig) {
		t.Fatal("verification must fail under the wrong public key")
	}
}
