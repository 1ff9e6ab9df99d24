package main

import (
	"testing"

	"tillchat/internal/config"
)

func TestValidateSecurityConfigRejectsShortSecret(t *testing.T) {
	err := validateSecurityConfig(config.Config{AuthSecret: "short"})
	if err == nil {
		t.Fatalf("expected weak security config to be rejected")
	}
}

func TestValidateSecurityConfigAcceptsStrongSecret(t *testing.T) {
	err := validateSecurityConfig(config.Config{AuthSecret: "0123456789abcdef0123456789abcdef"})
	if err != nil {
		t.Fatalf("expected strong config to pass, got %v", err)
	}
}

func TestBuildResolverDefaults(t *testing.T) {
	resolver, err := buildResolver(config.Config{MatchThreshold: 0.3})
	if err != nil {
		t.Fatalf("buildResolver: %v", err)
	}
	if resolver == nil {
		t.Fatalf("expected a resolver")
	}
}
