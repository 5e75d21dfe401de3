package identity_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/bcrypt"

	"github.com/goliatone/go-identity"
)

func TestHashPassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		cost     int
		wantErr  bool
	}{
		{
			name:     "Valid password",
			password: "securePassword123!",
			cost:     bcrypt.MinCost,
			wantErr:  false,
		},
		{
			name:     "Empty password",
			password: "",
			cost:     bcrypt.MinCost,
			wantErr:  true, // bcrypt can hash empty strings!
		},
		{
			name:     "Cost below range falls back to default",
			password: "securePassword123!",
			cost:     -1,
			wantErr:  false,
		},
		{
			name:     "Cost above range falls back to default",
			password: "securePassword123!",
			cost:     bcrypt.MaxCost + 1,
			wantErr:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := identity.HashPassword(tt.password, tt.cost)

			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			assert.NoError(t, err)
			assert.NotEmpty(t, hash)
			assert.NotEqual(t, tt.password, hash)

			err = identity.ComparePasswordAndHash(tt.password, hash)
			assert.NoError(t, err)
		})
	}
}

func TestComparePasswordAndHash(t *testing.T) {
	password := "testPassword123!"
	hash, err := identity.HashPassword(password, bcrypt.MinCost)
	assert.NoError(t, err)

	tests := []struct {
		name     string
		password string
		hash     string
		wantErr  bool
	}{
		{
			name:     "Matching password",
			password: password,
			hash:     hash,
			wantErr:  false,
		},
		{
			name:     "Wrong password",
			password: "not-the-password",
			hash:     hash,
			wantErr:  true,
		},
		{
			name:     "Malformed hash",
			password: password,
			hash:     "not-a-bcrypt-hash",
			wantErr:  true,
		},
		{
			name:     "Empty hash",
			password: password,
			hash:     "",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := identity.ComparePasswordAndHash(tt.password, tt.hash)

			if tt.wantErr {
				assert.ErrorIs(t, err, identity.ErrMismatchedHashAndPassword)
				return
			}

			assert.NoError(t, err)
		})
	}
}
