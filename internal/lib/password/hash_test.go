package password

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompareHash(t *testing.T) {
	correctHash, err := GetHash("owner-pass-1")
	require.NoError(t, err)

	otherHash, err := GetHash("admin-pass-2")
	require.NoError(t, err)

	tests := []struct {
		name     string
		hash     string
		password string
		wantErr  error
		anyErr   bool
	}{
		{name: "matching password", hash: correctHash, password: "owner-pass-1"},
		{name: "wrong password", hash: correctHash, password: "owner-pass-2", wantErr: ErrMismatch},
		{name: "hash of another account", hash: otherHash, password: "owner-pass-1", wantErr: ErrMismatch},
		{name: "empty password", hash: correctHash, password: "", wantErr: ErrMismatch},
		{name: "corrupted hash", hash: "not-a-bcrypt-hash", password: "owner-pass-1", anyErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CompareHash(tt.hash, tt.password)
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.anyErr:
				assert.Error(t, err)
				assert.NotErrorIs(t, err, ErrMismatch)
			default:
				assert.NoError(t, err)
			}
		})
	}
}

func TestGetHash_Salted(t *testing.T) {
	h1, err := GetHash("same")
	require.NoError(t, err)
	h2, err := GetHash("same")
	require.NoError(t, err)

	assert.NotEqual(t, h1, h2)
	assert.NoError(t, CompareHash(h1, "same"))
	assert.NoError(t, CompareHash(h2, "same"))
}
