package config

import (
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestBcryptCostDefaultIsProductionGrade(t *testing.T) {
	t.Setenv("BCRYPT_COST", "")

	cfg := Load()
	if cfg.BcryptCost < bcrypt.DefaultCost {
		t.Errorf("default bcrypt cost %d is below the library default %d", cfg.BcryptCost, bcrypt.DefaultCost)
	}
}

func TestBcryptCostOverride(t *testing.T) {
	t.Setenv("BCRYPT_COST", "4")

	cfg := Load()
	if cfg.BcryptCost != 4 {
		t.Errorf("expected overridden cost 4, got %d", cfg.BcryptCost)
	}
}

func TestParseOrigins(t *testing.T) {
	cases := []struct {
		raw  string
		want int
	}{
		{"", 0},
		{"https://a.example", 1},
		{"https://a.example, https://b.example", 2},
		{" , ", 0},
	}
	for _, c := range cases {
		got := parseOrigins(c.raw)
		if len(got) != c.want {
			t.Errorf("parseOrigins(%q) = %v, want %d entries", c.raw, got, c.want)
		}
	}
}
