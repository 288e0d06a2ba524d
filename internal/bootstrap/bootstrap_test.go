package bootstrap

import (
	"context"
	"testing"
	"time"

	"github.com/kirillkom/tce-search/internal/config"
	"github.com/kirillkom/tce-search/internal/infrastructure/resilience"
)

func TestImagePolicyNeverRetries(t *testing.T) {
	policy := imagePolicy(config.Config{
		ResilienceRetryMaxAttempts:  5,
		ResilienceBreakerEnabled:    true,
		ResilienceImageTripFailures: 3,
	})
	if policy.Retry.MaxAttempts != 1 {
		t.Fatalf("expected single image fetch attempt, got %d", policy.Retry.MaxAttempts)
	}
	if !policy.Breaker.Enabled || policy.Breaker.ConsecutiveFailures != 3 {
		t.Fatalf("unexpected image breaker %+v", policy.Breaker)
	}
}

func TestDatasetPolicyAppliesOverrides(t *testing.T) {
	policy := datasetPolicy(config.Config{
		ResilienceRetryMaxAttempts:   4,
		ResilienceBreakerOpenTimeout: 5 * time.Second,
	})
	if policy.Retry.MaxAttempts != 4 || policy.Breaker.OpenTimeout != 5*time.Second {
		t.Fatalf("unexpected dataset policy %+v", policy)
	}
	if policy.Breaker.Enabled {
		t.Fatal("expected breaker disabled when config disables it")
	}
	if policy.Retry.InitialBackoff != resilience.DatasetConfig().Retry.InitialBackoff {
		t.Fatalf("expected default backoff to be kept, got %s", policy.Retry.InitialBackoff)
	}
}

func TestNewWiresBuiltInCatalogWithoutNATS(t *testing.T) {
	app, err := New(context.Background(), config.Config{ArchivePath: t.TempDir()})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer app.Close()

	if len(app.Domains) != 4 || len(app.ExamUC.Domains()) != 4 {
		t.Fatalf("expected built-in catalog, got %d domains", len(app.Domains))
	}
	if app.Sessions.Create().ID() == "" {
		t.Fatal("expected session manager to issue ids")
	}
}
