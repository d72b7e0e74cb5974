package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckStrength(t *testing.T) {
	tests := []struct {
		name       string
		password   string
		violations int
	}{
		{"valid", "Str0ngPass", 0},
		{"too short", "Ab1", 1},
		{"missing uppercase", "weakpass1", 1},
		{"missing lowercase", "WEAKPASS1", 1},
		{"missing digit", "WeakPassword", 1},
		{"everything wrong", "abc", 3},
		{"empty", "", 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Len(t, CheckStrength(tt.password), tt.violations)
		})
	}
}

func TestBcryptHasherRoundtrip(t *testing.T) {
	hasher := NewBcryptHasher(4)

	hash, err := hasher.Hash("Str0ngPass")
	require.NoError(t, err)
	assert.NotEqual(t, "Str0ngPass", hash)

	assert.NoError(t, hasher.Compare(hash, "Str0ngPass"))
	assert.Error(t, hasher.Compare(hash, "WrongPass1"))
}

func TestHashRejectsShortPassword(t *testing.T) {
	hasher := NewBcryptHasher(4)
	_, err := hasher.Hash("short")
	assert.Error(t, err)
}
