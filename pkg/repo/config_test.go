package repo

import (
	"os"
	"testing"
)

func TestConfigMissingFile(t *testing.T) {
	r := initTestRepo(t)

	cfg, err := r.ReadConfig()
	if err != nil {
		t.Fatalf("read missing config: %v", err)
	}
	if cfg.User.Name != "" || cfg.Reset.Quiet {
		t.Errorf("missing config not zero-valued: %+v", cfg)
	}
}

func TestConfigRoundTrip(t *testing.T) {
	r := initTestRepo(t)

	cfg := &Config{}
	cfg.User.Name = "alice"
	cfg.User.SigningKey = "~/.ssh/id_ed25519"
	cfg.Reset.Quiet = true

	if err := r.WriteConfig(cfg); err != nil {
		t.Fatalf("write config: %v", err)
	}

	got, err := r.ReadConfig()
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	if got.User.Name != "alice" || got.User.SigningKey != "~/.ssh/id_ed25519" || !got.Reset.Quiet {
		t.Errorf("round trip mismatch: %+v", got)
	}
}

func TestConfigMalformed(t *testing.T) {
	r := initTestRepo(t)

	if err := os.WriteFile(r.configPath(), []byte("[user\nname="), 0o644); err != nil {
		t.Fatalf("write malformed config: %v", err)
	}
	if _, err := r.ReadConfig(); err == nil {
		t.Error("malformed config should fail to parse")
	}
}
