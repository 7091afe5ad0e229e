package pg

import "testing"

func TestConfigDSN(t *testing.T) {
	cfg := Config{Host: "postgres", Port: 5432, User: "terraswap_user", Password: "secret", Name: "terraswap"}
	want := "host=postgres port=5432 user=terraswap_user password=secret dbname=terraswap sslmode=disable"
	if got := cfg.DSN(); got != want {
		t.Errorf("DSN() = %q, want %q", got, want)
	}
}
