package cryptox

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncryptDecryptSecret(t *testing.T) {
	ResetMasterKeyForTesting()
	t.Setenv("BACKOFFICE_MASTER_KEY", "test-master-key-material")
	t.Cleanup(ResetMasterKeyForTesting)

	tests := []struct {
		name   string
		secret string
	}{
		{"totp secret", "JBSWY3DPEHPK3PXP"},
		{"empty string", ""},
		{"unicode", "sécrét-值"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enc, err := EncryptSecret(tt.secret)
			require.NoError(t, err)
			require.NotEqual(t, tt.secret, enc)

			dec, err := DecryptSecret(enc)
			require.NoError(t, err)
			require.Equal(t, tt.secret, dec)
		})
	}

	t.Run("nonce is random per call", func(t *testing.T) {
		a, err := EncryptSecret("same-input")
		require.NoError(t, err)
		b, err := EncryptSecret("same-input")
		require.NoError(t, err)
		require.NotEqual(t, a, b)
	})

	t.Run("tampered ciphertext rejected", func(t *testing.T) {
		enc, err := EncryptSecret("secret")
		require.NoError(t, err)

		tampered := "A" + enc[1:]
		if tampered == enc {
			tampered = "B" + enc[1:]
		}
		_, err = DecryptSecret(tampered)
		require.Error(t, err)
	})
}
