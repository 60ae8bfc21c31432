package hash

import (
	"strings"
	"testing"
)

// Reference digests in werkzeug's stored format.
const (
	pbkdf2SHA256 = "pbkdf2:sha256:600000$Zx8kQpLm2aB4cD6e$daa435869a044e618acf6a5549b2e12a8ba042788c5759bf2259e27749afb0fc"
	pbkdf2SHA1   = "pbkdf2:sha1:1000$Zx8kQpLm2aB4cD6e$174d3a0de458fdff4544d012605c98f0b61d9b71"
	pbkdf2SHA512 = "pbkdf2:sha512:2000$Zx8kQpLm2aB4cD6e$c37dd29749efe9b8d5d28c6ada15882fce89c39f7cad802684d95708b0f8a9a95a974ba0621aaf8124f11650b98fdaaf81758e97fbb1769565a744310b5e9e05"
	scryptFull   = "scrypt:32768:8:1$Zx8kQpLm2aB4cD6e$363a622911861f1ee750ccfdf21b9030f903ff3a0e1428c5ba6203e77f84b78f28f30047d154ed54eeba1015fdfe0edc5be5356960765b154751a8a61707db01"
	scryptSmall  = "scrypt:16384:8:1$Zx8kQpLm2aB4cD6e$bf654f13b1264f9cf5bdfcdb3097c9096aca3c49c516817de978bcc05056ce77bc77b37331f568b5af60e06a7f722a1a53e91fe0aae35d7191aa53b630fd7a94"
)

func TestWerkzeugVerify(t *testing.T) {
	tests := []struct {
		name   string
		hashed string
		plain  string
		want   bool
	}{
		{name: "PBKDF2SHA256", hashed: pbkdf2SHA256, plain: "pw123", want: true},
		{name: "PBKDF2SHA256DefaultIterations", hashed: strings.Replace(pbkdf2SHA256, ":600000", "", 1), plain: "pw123", want: true},
		{name: "PBKDF2SHA1", hashed: pbkdf2SHA1, plain: "pw123", want: true},
		{name: "PBKDF2SHA512", hashed: pbkdf2SHA512, plain: "pw123", want: true},
		{name: "Scrypt", hashed: scryptFull, plain: "pw123", want: true},
		{name: "ScryptBareMethod", hashed: strings.Replace(scryptFull, ":32768:8:1", "", 1), plain: "pw123", want: true},
		{name: "ScryptCustomCost", hashed: scryptSmall, plain: "pw123", want: true},
		{name: "WrongPassword", hashed: pbkdf2SHA256, plain: "pw124", want: false},
		{name: "WrongCase", hashed: scryptSmall, plain: "PW123", want: false},
		{name: "UnknownDigest", hashed: strings.Replace(pbkdf2SHA1, "sha1", "md5", 1), plain: "pw123", want: false},
		{name: "BadIterations", hashed: strings.Replace(pbkdf2SHA1, "1000", "x", 1), plain: "pw123", want: false},
		{name: "MissingSalt", hashed: "pbkdf2:sha256$$abcd", plain: "pw123", want: false},
		{name: "NotHex", hashed: "pbkdf2:sha256$salt$zz", plain: "pw123", want: false},
		{name: "Empty", hashed: "", plain: "pw123", want: false},
	}

	w := NewWerkzeug()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {

			// Act
			got := w.Verify(tt.hashed, tt.plain)

			// Assert
			if got != tt.want {
				t.Fatalf("Verify(%q) = %v, want %v", tt.hashed, got, tt.want)
			}
		})
	}
}

func TestWerkzeugHash(t *testing.T) {

	// Arrange
	w := NewWerkzeug()

	// Act
	hashed, err := w.Hash("pw123")

	// Assert
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !strings.HasPrefix(string(hashed), "scrypt:32768:8:1$") {
		t.Fatalf("unexpected format %q", hashed)
	}
	if !w.Verify(string(hashed), "pw123") {
		t.Fatalf("fresh hash does not verify")
	}
	if w.Verify(string(hashed), "pw1234") {
		t.Fatalf("fresh hash verifies the wrong password")
	}
}

func TestCompat(t *testing.T) {

	// Arrange
	bc := NewBcrypt(4, "")
	bcHash, err := bc.Hash("pw123")
	if err != nil {
		t.Fatalf("bcrypt hash: %v", err)
	}
	a2 := NewArgon2id("")
	a2Hash, err := a2.Hash("pw123")
	if err != nil {
		t.Fatalf("argon2id hash: %v", err)
	}
	c := NewCompat(NewWerkzeug(), bc, a2)

	tests := []struct {
		name   string
		hashed string
		plain  string
		want   bool
	}{
		{name: "Werkzeug", hashed: pbkdf2SHA256, plain: "pw123", want: true},
		{name: "Bcrypt", hashed: string(bcHash), plain: "pw123", want: true},
		{name: "BcryptWrong", hashed: string(bcHash), plain: "nope", want: false},
		{name: "Argon2id", hashed: string(a2Hash), plain: "pw123", want: true},
		{name: "Argon2idWrong", hashed: string(a2Hash), plain: "nope", want: false},
		{name: "PlaintextStored", hashed: "pw123", plain: "pw123", want: false},
		{name: "Empty", hashed: "", plain: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {

			// Act
			got := c.Verify(tt.hashed, tt.plain)

			// Assert
			if got != tt.want {
				t.Fatalf("Verify = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCompatDisabledFormat(t *testing.T) {

	// Arrange
	bcHash, err := NewBcrypt(4, "").Hash("pw123")
	if err != nil {
		t.Fatalf("bcrypt hash: %v", err)
	}
	c := NewCompat(NewWerkzeug(), nil, nil)

	// Act
	got := c.Verify(string(bcHash), "pw123")

	// Assert
	if got {
		t.Fatalf("bcrypt hash verified with bcrypt disabled")
	}
}

func TestHMACSHA256Fingerprint(t *testing.T) {

	// Arrange
	h := NewHMACSHA256("secret")

	// Act
	short := h.Fingerprint("token-a", 12)
	again := h.Fingerprint("token-a", 12)
	other := h.Fingerprint("token-b", 12)
	full := h.Fingerprint("token-a", 0)

	// Assert
	if len(short) != 12 || short != again {
		t.Fatalf("fingerprint not stable: %q vs %q", short, again)
	}
	if short == other {
		t.Fatalf("different tokens share a fingerprint")
	}
	if len(full) != 64 || !strings.HasPrefix(full, short) {
		t.Fatalf("full digest %q does not extend %q", full, short)
	}
	if !h.Verify(full, "token-a") {
		t.Fatalf("digest does not verify")
	}
}
