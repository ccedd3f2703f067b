package main

import (
	"testing"
	"time"

	"github.com/drawspace-ai/canvasd/internal/config"
)

func TestRetryPolicyFromConfig(t *testing.T) {
	p := retryPolicy(config.RetryConfig{
		Enabled:     true,
		MaxAttempts: 5,
		InitialWait: "500ms",
		MaxWait:     "3s",
	})
	if p.MaxAttempts != 5 {
		t.Fatalf("maxAttempts = %d", p.MaxAttempts)
	}
	if p.InitialInterval != 500*time.Millisecond || p.MaxInterval != 3*time.Second {
		t.Fatalf("intervals = %s/%s", p.InitialInterval, p.MaxInterval)
	}
}

func TestRetryPolicyDisabledIsSingleAttempt(t *testing.T) {
	p := retryPolicy(config.RetryConfig{Enabled: false, MaxAttempts: 5})
	if p.MaxAttempts != 1 {
		t.Fatalf("disabled retry must make exactly one attempt, got %d", p.MaxAttempts)
	}
}

func TestRetryPolicyMalformedWaitsKeepDefaults(t *testing.T) {
	p := retryPolicy(config.RetryConfig{Enabled: true, InitialWait: "soon", MaxWait: ""})
	if p.InitialInterval != 2*time.Second || p.MaxInterval != 10*time.Second {
		t.Fatalf("intervals = %s/%s", p.InitialInterval, p.MaxInterval)
	}
	if p.MaxAttempts != 3 {
		t.Fatalf("maxAttempts = %d", p.MaxAttempts)
	}
}
