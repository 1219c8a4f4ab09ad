package agentauth

import "testing"

func TestHMACSHA256Hex_Deterministic(t *testing.T) {
	a := HMACSHA256Hex("answer", "session-token")
	b := HMACSHA256Hex("answer", "session-token")
	if a != b {
		t.Errorf("expected deterministic output, got %q and %q", a, b)
	}
}

func TestHMACSHA256Hex_DiffersBySecret(t *testing.T) {
	a := HMACSHA256Hex("answer", "secret-a")
	b := HMACSHA256Hex("answer", "secret-b")
	if a == b {
		t.Error("expected different secrets to produce different HMACs")
	}
}

func TestTimingSafeEqual(t *testing.T) {
	cases := []struct {
		a, b string
		want bool
	}{
		{"abc123", "abc123", true},
		{"abc123", "abc124", false},
		{"abc123", "abc12", false},
		{"", "", true},
	}
	for _, c := range cases {
		if got := TimingSafeEqual(c.a, c.b); got != c.want {
			t.Errorf("TimingSafeEqual(%q, %q) = %v, want %v", c.a, c.b, got, c.want)
		}
	}
}

func TestSHA256Hex(t *testing.T) {
	got := SHA256Hex([]byte("hello"))
	want := "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"
	if got != want {
		t.Errorf("SHA256Hex(hello) = %q, want %q", got, want)
	}
}

func TestToHexFromHexRoundTrip(t *testing.T) {
	data := RandomBytes(16)
	hexStr := ToHex(data)
	decoded, err := FromHex(hexStr)
	if err != nil {
		t.Fatalf("FromHex: %v", err)
	}
	if string(decoded) != string(data) {
		t.Error("expected round trip through ToHex/FromHex to preserve bytes")
	}
}

func TestGenerateID_HasPrefix(t *testing.T) {
	id := GenerateID()
	if len(id) < 4 || id[:3] != "ch_" {
		t.Errorf("expected id to start with ch_, got %q", id)
	}
}

func TestGenerateSessionToken_HasPrefix(t *testing.T) {
	token := GenerateSessionToken()
	if len(token) < 4 || token[:3] != "st_" {
		t.Errorf("expected token to start with st_, got %q", token)
	}
}

func TestGenerateID_Unique(t *testing.T) {
	if GenerateID() == GenerateID() {
		t.Error("expected two generated ids to differ")
	}
}

func TestDeriveSubkey_DeterministicAndDomainSeparated(t *testing.T) {
	ikm := []byte("shared-secret")
	salt := []byte("salt")

	a, err := DeriveSubkey(ikm, salt, "tokens", 32)
	if err != nil {
		t.Fatalf("DeriveSubkey: %v", err)
	}
	b, err := DeriveSubkey(ikm, salt, "tokens", 32)
	if err != nil {
		t.Fatalf("DeriveSubkey: %v", err)
	}
	if string(a) != string(b) {
		t.Error("expected the same (ikm, salt, info) to derive the same subkey")
	}

	c, err := DeriveSubkey(ikm, salt, "other-purpose", 32)
	if err != nil {
		t.Fatalf("DeriveSubkey: %v", err)
	}
	if string(a) == string(c) {
		t.Error("expected different info strings to derive different subkeys")
	}
}
