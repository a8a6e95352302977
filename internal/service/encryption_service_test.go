package service

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testMasterKey() []byte {
	return bytes.Repeat([]byte{0x42}, 32)
}

func TestNewAESEncryptionService_KeyLength(t *testing.T) {
	_, err := NewAESEncryptionService(make([]byte, 16))
	assert.Error(t, err)

	svc, err := NewAESEncryptionService(testMasterKey())
	require.NoError(t, err)
	assert.NotNil(t, svc)
}

func TestAESEncryptionService_SealOpen(t *testing.T) {
	svc, err := NewAESEncryptionService(testMasterKey())
	require.NoError(t, err)

	secret := []byte("SBGWSG6BTNCKCOB3DIFBGCVMUPQFYPA2G4O34RMTB343OYPXU5DJDVMN")
	blob, err := svc.Seal(secret, "owner-1|account_ledger")
	require.NoError(t, err)

	parts := strings.Split(blob, ":")
	require.Len(t, parts, 3)
	assert.Len(t, parts[0], 24, "12-byte nonce")
	assert.Len(t, parts[1], 32, "16-byte tag")
	assert.Len(t, parts[2], 2*len(secret))
	assert.NotContains(t, blob, string(secret))

	plain, err := svc.Open(blob, "owner-1|account_ledger")
	require.NoError(t, err)
	assert.Equal(t, secret, plain)
}

func TestAESEncryptionService_FreshNoncePerSeal(t *testing.T) {
	svc, err := NewAESEncryptionService(testMasterKey())
	require.NoError(t, err)

	a, err := svc.Seal([]byte("same"), "b")
	require.NoError(t, err)
	b, err := svc.Seal([]byte("same"), "b")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestAESEncryptionService_BindingMismatch(t *testing.T) {
	svc, err := NewAESEncryptionService(testMasterKey())
	require.NoError(t, err)

	blob, err := svc.Seal([]byte("key material"), "owner-1|evm")
	require.NoError(t, err)

	_, err = svc.Open(blob, "owner-2|evm")
	assert.Error(t, err, "blob copied to another owner must not open")
}

func TestAESEncryptionService_WrongMasterKey(t *testing.T) {
	svc, err := NewAESEncryptionService(testMasterKey())
	require.NoError(t, err)
	other, err := NewAESEncryptionService(bytes.Repeat([]byte{0x07}, 32))
	require.NoError(t, err)

	blob, err := svc.Seal([]byte("key material"), "owner|utxo")
	require.NoError(t, err)

	_, err = other.Open(blob, "owner|utxo")
	assert.Error(t, err)
}

func TestAESEncryptionService_MalformedBlobs(t *testing.T) {
	svc, err := NewAESEncryptionService(testMasterKey())
	require.NoError(t, err)

	blob, err := svc.Seal([]byte("x"), "b")
	require.NoError(t, err)
	parts := strings.Split(blob, ":")

	tests := []struct {
		name string
		blob string
	}{
		{"two parts", parts[0] + ":" + parts[2]},
		{"bad hex nonce", "zz:" + parts[1] + ":" + parts[2]},
		{"bad hex tag", parts[0] + ":zz:" + parts[2]},
		{"bad hex ciphertext", parts[0] + ":" + parts[1] + ":zz"},
		{"short nonce", "00:" + parts[1] + ":" + parts[2]},
		{"tampered tag", parts[0] + ":" + strings.Repeat("0", 32) + ":" + parts[2]},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Open(tt.blob, "b")
			assert.Error(t, err)
		})
	}
}

func TestZero(t *testing.T) {
	b := []byte{1, 2, 3}
	zero(b)
	assert.Equal(t, []byte{0, 0, 0}, b)
}
