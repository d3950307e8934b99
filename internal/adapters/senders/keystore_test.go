package senders

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urbandao/urbandao/internal/domain"
)

const adminKey = "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"

var adminAddr = common.HexToAddress("0x2c7536E3605D9C16a7a3D7b1898e529396a65c23")

func storeWith(env map[string]string) *KeyStore {
	return &KeyStore{lookup: func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}}
}

func TestKeyStore_Key(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		key     string
		wantErr error
	}{
		{name: "raw hex", key: adminKey},
		{name: "raw hex with prefix", key: "0x" + adminKey},
		{name: "prefixed env", env: map[string]string{"URBANDAO_KEY_ADMIN": "0x" + adminKey}, key: "admin"},
		{name: "dashed name", env: map[string]string{"URBANDAO_KEY_TAX_DESK": adminKey}, key: "tax-desk"},
		{name: "plain env", env: map[string]string{"DEPLOYER_PK": adminKey}, key: "DEPLOYER_PK"},
		{name: "missing", key: "nobody", wantErr: domain.ErrNotFound},
		{name: "empty", key: "", wantErr: domain.ErrInvalidInput},
		{name: "garbage value", env: map[string]string{"URBANDAO_KEY_BAD": "zz"}, key: "bad", wantErr: domain.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, err := storeWith(tt.env).Key(tt.key)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, adminAddr, crypto.PubkeyToAddress(key.PublicKey))
		})
	}
}

func TestKeyStore_PrefixedWins(t *testing.T) {
	other := "8da4ef21b864d2cc526dbdb2a120bd2874c36c9d0a1fb7f8c63d7f7a8b41de8f"
	key, err := storeWith(map[string]string{"URBANDAO_KEY_OPS": adminKey, "ops": other}).Key("ops")
	require.NoError(t, err)
	assert.Equal(t, adminAddr, crypto.PubkeyToAddress(key.PublicKey))
}
