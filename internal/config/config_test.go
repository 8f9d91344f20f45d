package config

import "testing"

func validConfig() Config {
	return Config{
		HTTP: HTTPConfig{Port: 8080},
		Database: DatabaseConfig{
			Driver: "valkey",
			Addrs:  []string{"localhost:6379"},
		},
		Embedding: EmbeddingConfig{Model: "clip-vit-b-32"},
	}
}

func TestValidate_OK(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := validConfig()
	cfg.HTTP.Port = 0

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_MissingAddrs(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Addrs = nil

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing database addrs")
	}
}

func TestValidate_UnknownDriver(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Driver = "elasticsearch"

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestValidate_MissingModel(t *testing.T) {
	cfg := validConfig()
	cfg.Embedding.Model = ""

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing embedding model")
	}
}

func TestValidate_ThresholdOutOfRange(t *testing.T) {
	for _, th := range []float64{-1.5, 1.5} {
		cfg := validConfig()
		cfg.Search.MinSimilarity = th

		if err := cfg.Validate(); err == nil {
			t.Errorf("expected error for min_similarity %v", th)
		}
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 10 {
		t.Errorf("expected ReadTimeoutSec=10, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.Database.Driver != "valkey" {
		t.Errorf("expected driver=valkey, got %q", cfg.Database.Driver)
	}
	if cfg.Embedding.Dimensions != 512 {
		t.Errorf("expected Dimensions=512, got %d", cfg.Embedding.Dimensions)
	}
	if cfg.Embedding.Breaker.MaxFailures != 3 {
		t.Errorf("expected Breaker.MaxFailures=3, got %d", cfg.Embedding.Breaker.MaxFailures)
	}
	if cfg.Search.MinSimilarity != 0.7 {
		t.Errorf("expected MinSimilarity=0.7, got %v", cfg.Search.MinSimilarity)
	}
	if cfg.Search.Window != 100 {
		t.Errorf("expected Window=100, got %d", cfg.Search.Window)
	}
	if cfg.Deletion.ScanLimit != 1000 {
		t.Errorf("expected ScanLimit=1000, got %d", cfg.Deletion.ScanLimit)
	}
	if cfg.Index.HNSWM != 32 {
		t.Errorf("expected HNSWM=32, got %d", cfg.Index.HNSWM)
	}
	if cfg.Index.HNSWEFConstruct != 400 {
		t.Errorf("expected HNSWEFConstruct=400, got %d", cfg.Index.HNSWEFConstruct)
	}
	if cfg.Storage.KeyPrefix != "imagedex:" {
		t.Errorf("expected KeyPrefix='imagedex:', got %q", cfg.Storage.KeyPrefix)
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	cfg := Config{
		HTTP:     HTTPConfig{ReadTimeoutSec: 30, WriteTimeoutSec: 60, ShutdownSec: 5},
		Database: DatabaseConfig{Driver: "redis", ReadinessTimeout: 15},
		Search:   SearchConfig{MinSimilarity: 0.5, Window: 50},
		Index:    IndexConfig{HNSWM: 16, HNSWEFConstruct: 200},
		Storage:  StorageConfig{KeyPrefix: "custom:"},
	}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 30 {
		t.Errorf("expected ReadTimeoutSec=30, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.Database.Driver != "redis" {
		t.Errorf("expected driver=redis, got %q", cfg.Database.Driver)
	}
	if cfg.Search.MinSimilarity != 0.5 {
		t.Errorf("expected MinSimilarity=0.5, got %v", cfg.Search.MinSimilarity)
	}
	if cfg.Search.Window != 50 {
		t.Errorf("expected Window=50, got %d", cfg.Search.Window)
	}
	if cfg.Index.HNSWM != 16 {
		t.Errorf("expected HNSWM=16, got %d", cfg.Index.HNSWM)
	}
	if cfg.Storage.KeyPrefix != "custom:" {
		t.Errorf("expected KeyPrefix='custom:', got %q", cfg.Storage.KeyPrefix)
	}
}
