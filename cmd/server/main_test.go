package main

import (
	"strings"
	"testing"

	"github.com/agrimart/ordercore/internal/config"

	"github.com/stretchr/testify/assert"
)

func TestIsWeakSecret(t *testing.T) {
	assert.True(t, isWeakSecret(""))
	assert.True(t, isWeakSecret("short"))
	assert.True(t, isWeakSecret("change-me-in-production-please-0123456789"))
	assert.False(t, isWeakSecret(strings.Repeat("k3", 20)))
}

func TestSecretProblemsNamesEachSecret(t *testing.T) {
	cfg := &config.Config{
		JWT:     config.JWTConfig{SecretKey: strings.Repeat("a1", 20)},
		Payment: config.PaymentConfig{WebhookSecret: "whsec"},
	}
	problems := secretProblems(cfg)
	assert.Len(t, problems, 1)
	assert.Contains(t, problems[0], "payment.webhook_secret")
}
