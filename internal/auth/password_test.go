package auth

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHashPassword_Cost(t *testing.T) {
	hash, err := HashPassword("oficina2024")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}

	cost, err := bcrypt.Cost([]byte(hash))
	if err != nil {
		t.Fatalf("bcrypt.Cost() error = %v", err)
	}
	if cost != bcryptCost {
		t.Errorf("cost = %d, want %d", cost, bcryptCost)
	}
}

// Ограничение bcrypt считается в байтах, а не в символах.
func TestHashPassword_ByteLimit(t *testing.T) {
	tests := []struct {
		name     string
		password string
		tooLong  bool
	}{
		{name: "72 ascii bytes", password: strings.Repeat("x", 72)},
		{name: "73 ascii bytes", password: strings.Repeat("x", 73), tooLong: true},
		{name: "36 two-byte letters", password: strings.Repeat("ç", 36)},
		{name: "37 two-byte letters", password: strings.Repeat("ç", 37), tooLong: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := HashPassword(tt.password)
			if tt.tooLong {
				if !errors.Is(err, bcrypt.ErrPasswordTooLong) {
					t.Errorf("HashPassword() error = %v, want %v", err, bcrypt.ErrPasswordTooLong)
				}
				return
			}
			if err != nil {
				t.Fatalf("HashPassword() error = %v", err)
			}
			if !CheckPassword(tt.password, hash) {
				t.Error("CheckPassword() rejected the hashed password")
			}
		})
	}
}

func TestCheckPassword_StoredHashes(t *testing.T) {
	// Хеш с другой стоимостью, как после импорта сотрудников из старой базы.
	imported, err := bcrypt.GenerateFromPassword([]byte("senha-antiga"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("GenerateFromPassword() error = %v", err)
	}
	current, err := HashPassword("senha-nova")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}

	tests := []struct {
		name     string
		password string
		hash     string
		want     bool
	}{
		{name: "imported hash", password: "senha-antiga", hash: string(imported), want: true},
		{name: "current hash", password: "senha-nova", hash: current, want: true},
		{name: "password of another user", password: "senha-antiga", hash: current},
		{name: "truncated hash", password: "senha-nova", hash: current[:len(current)-1]},
		{name: "plain text in column", password: "senha-nova", hash: "senha-nova"},
		{name: "no hash", password: "", hash: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CheckPassword(tt.password, tt.hash); got != tt.want {
				t.Errorf("CheckPassword() = %v, want %v", got, tt.want)
			}
		})
	}
}
