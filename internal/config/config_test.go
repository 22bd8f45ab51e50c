package config

import "testing"

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("FIREBASE_PROJECT_ID", "chat-test")
	t.Setenv("FIREBASE_SERVICE_ACCOUNT_JSON_BASE64", "e30=")
}

func TestLoadConfigDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("expected default port 8080, got %q", cfg.Port)
	}
	if cfg.StorageBucket != "chat-test.appspot.com" {
		t.Errorf("expected derived storage bucket, got %q", cfg.StorageBucket)
	}
}

func TestLoadConfigRequiresProjectID(t *testing.T) {
	t.Setenv("FIREBASE_PROJECT_ID", "")
	t.Setenv("FIREBASE_SERVICE_ACCOUNT_JSON_BASE64", "e30=")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error when FIREBASE_PROJECT_ID is missing")
	}
}

func TestLoadConfigRequiresCredentials(t *testing.T) {
	t.Setenv("FIREBASE_PROJECT_ID", "chat-test")
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
	t.Setenv("FIREBASE_SERVICE_ACCOUNT_JSON_BASE64", "")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error when no credentials are configured")
	}
}

func TestLoadConfigExplicitBucketWins(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("STORAGE_BUCKET", "custom-bucket")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.StorageBucket != "custom-bucket" {
		t.Errorf("expected explicit bucket to win, got %q", cfg.StorageBucket)
	}
}
