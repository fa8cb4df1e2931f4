package payment

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestVerifyAndParseSettled(t *testing.T) {
	now := time.Unix(1760000000, 0)
	cfg := Config{Secret: "whsec_test_abc", ToleranceSeconds: 300}
	body, _ := json.Marshal(map[string]interface{}{
		"id":           "evt_1",
		"type":         "payment.settled",
		"order_number": "ORD-20261019-0001",
		"leg":          "upfront",
		"amount":       "735.00",
		"reference":    "pay-1",
	})

	event, err := VerifyAndParse(cfg, Sign(cfg.Secret, now.Unix(), body), body, now)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if event.Type != EventSettled || event.Leg != "upfront" || event.Reference != "pay-1" {
		t.Fatalf("unexpected event: %+v", event)
	}
	if event.Amount.String() != "735.00" {
		t.Fatalf("unexpected amount: %s", event.Amount)
	}
}

func TestVerifyAndParseReferenceFallsBackToEventID(t *testing.T) {
	now := time.Unix(1760000000, 0)
	cfg := Config{Secret: "s"}
	body := []byte(`{"id":"evt_9","type":"payment.failed","order_id":7,"leg":"remaining","reason":"declined"}`)

	event, err := VerifyAndParse(cfg, Sign(cfg.Secret, now.Unix(), body), body, now)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if event.Reference != "evt_9" || event.OrderID != 7 {
		t.Fatalf("unexpected event: %+v", event)
	}
}

func TestVerifyAndParseRejects(t *testing.T) {
	now := time.Unix(1760000000, 0)
	body := []byte(`{"id":"evt_1","type":"payment.settled","reference":"pay-1"}`)
	cfg := Config{Secret: "whsec_test_abc", ToleranceSeconds: 300}

	cases := []struct {
		name   string
		cfg    Config
		header string
		body   []byte
		want   error
	}{
		{"missing secret", Config{}, Sign("x", now.Unix(), body), body, ErrConfigInvalid},
		{"empty body", cfg, Sign(cfg.Secret, now.Unix(), nil), nil, ErrPayloadInvalid},
		{"missing header", cfg, "", body, ErrSignatureInvalid},
		{"wrong secret", cfg, Sign("other", now.Unix(), body), body, ErrSignatureInvalid},
		{"tampered body", cfg, Sign(cfg.Secret, now.Unix(), body), []byte(`{"id":"evt_1","type":"payment.settled","reference":"pay-2"}`), ErrSignatureInvalid},
		{"stale timestamp", cfg, Sign(cfg.Secret, now.Add(-10*time.Minute).Unix(), body), body, ErrSignatureInvalid},
		{"no timestamp", cfg, "v1=" + computeSignature(cfg.Secret, now.Unix(), body), body, ErrSignatureInvalid},
		{"unknown type", cfg, Sign(cfg.Secret, now.Unix(), []byte(`{"type":"refund"}`)), []byte(`{"type":"refund"}`), ErrPayloadInvalid},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := VerifyAndParse(tc.cfg, tc.header, tc.body, now)
			if !errors.Is(err, tc.want) {
				t.Fatalf("want %v, got %v", tc.want, err)
			}
		})
	}
}

func TestVerifyAndParseToleranceDisabled(t *testing.T) {
	now := time.Unix(1760000000, 0)
	body := []byte(`{"type":"payment.settled","reference":"pay-1"}`)
	cfg := Config{Secret: "s", ToleranceSeconds: -1}
	if _, err := VerifyAndParse(cfg, Sign("s", now.Add(-48*time.Hour).Unix(), body), body, now); err != nil {
		t.Fatalf("negative tolerance should skip the timestamp check: %v", err)
	}
}
