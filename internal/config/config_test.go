package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Port != "8080" {
		t.Fatalf("port = %q", cfg.Port)
	}
	if cfg.DB.Driver != "sqlite" {
		t.Fatalf("db driver = %q", cfg.DB.Driver)
	}
	if cfg.PharmacistContact != "+999999999999" {
		t.Fatalf("pharmacist contact = %q", cfg.PharmacistContact)
	}
	if cfg.Retrieval.Threshold != 0.5 || cfg.Retrieval.TopK != 10 {
		t.Fatalf("retrieval defaults = %+v", cfg.Retrieval)
	}
	if cfg.Embedding.Dimensions != 384 {
		t.Fatalf("embedding dimensions = %d", cfg.Embedding.Dimensions)
	}
	if cfg.Fulfillment.MaxAttempts != 3 {
		t.Fatalf("fulfillment max attempts = %d", cfg.Fulfillment.MaxAttempts)
	}
	if cfg.Fulfillment.RetryBase != 2*time.Second {
		t.Fatalf("fulfillment retry base = %v", cfg.Fulfillment.RetryBase)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DB_DRIVER", "POSTGRES")
	t.Setenv("DB_DSN", "host=localhost user=app dbname=pharmacy")
	t.Setenv("RATE_RPS", "2.5")
	t.Setenv("RETRIEVAL_TOP_K", "5")
	t.Setenv("FULFILLMENT_DEADLINE", "30s")
	t.Setenv("PHARMACIST_CONTACT", "+2348000000000")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "9090" {
		t.Fatalf("port = %q", cfg.Port)
	}
	if cfg.DB.Driver != "postgres" {
		t.Fatalf("driver not lowercased: %q", cfg.DB.Driver)
	}
	if cfg.RateRPS != 2.5 {
		t.Fatalf("rate rps = %v", cfg.RateRPS)
	}
	if cfg.Retrieval.TopK != 5 {
		t.Fatalf("top k = %d", cfg.Retrieval.TopK)
	}
	if cfg.Fulfillment.Deadline != 30*time.Second {
		t.Fatalf("deadline = %v", cfg.Fulfillment.Deadline)
	}
	if cfg.PharmacistContact != "+2348000000000" {
		t.Fatalf("pharmacist contact = %q", cfg.PharmacistContact)
	}
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"DB_DRIVER":                "oracle",
		"FULFILLMENT_MAX_ATTEMPTS": "0",
		"RATE_RPS":                 "-1",
		"OTEL_TRACES_SAMPLER_ARG":  "1.5",
	}
	for key, val := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, val)
			if key == "DB_DRIVER" {
				// postgres needs a DSN too; an unknown driver must fail
				// regardless.
				t.Setenv("DB_DSN", "")
			}
			if _, err := Load(); err == nil {
				t.Fatalf("Load accepted %s=%s", key, val)
			}
		})
	}
}

func TestSplitCSV(t *testing.T) {
	got := splitCSV(" https://a.example , https://b.example ,, ")
	if len(got) != 2 || got[0] != "https://a.example" || got[1] != "https://b.example" {
		t.Fatalf("splitCSV = %v", got)
	}
	if out := splitCSV(""); out != nil && len(out) != 0 {
		t.Fatalf("splitCSV(\"\") = %v", out)
	}
}
