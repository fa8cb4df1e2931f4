package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/agrimart/ordercore/internal/models"
)

var (
	ErrConfigInvalid    = errors.New("payment webhook config invalid")
	ErrSignatureInvalid = errors.New("payment signature invalid")
	ErrPayloadInvalid   = errors.New("payment payload invalid")
)

// SignatureHeader carries "t=<unix>,v1=<hex hmac>"
const SignatureHeader = "X-Payment-Signature"

const (
	EventSettled = "payment.settled"
	EventFailed  = "payment.failed"
)

const defaultToleranceSeconds = 300

// Config gateway callback settings
type Config struct {
	Secret           string
	ToleranceSeconds int
}

// Event is one verified gateway callback for a payment leg
type Event struct {
	ID          string       `json:"id"`
	Type        string       `json:"type"`
	OrderID     uint         `json:"order_id"`
	OrderNumber string       `json:"order_number"`
	Leg         string       `json:"leg"`
	Amount      models.Money `json:"amount"`
	Reference   string       `json:"reference"`
	Reason      string       `json:"reason"`
}

// Sign builds the signature header value a gateway sends for body at timestamp
func Sign(secret string, timestamp int64, body []byte) string {
	return "t=" + strconv.FormatInt(timestamp, 10) + ",v1=" + computeSignature(secret, timestamp, body)
}

// VerifyAndParse checks the signature header against the raw body and decodes the event.
// A zero ToleranceSeconds uses the default; a negative one disables the timestamp check.
func VerifyAndParse(cfg Config, signatureHeader string, body []byte, now time.Time) (*Event, error) {
	if strings.TrimSpace(cfg.Secret) == "" {
		return nil, fmt.Errorf("%w: webhook secret is required", ErrConfigInvalid)
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("%w: body is empty", ErrPayloadInvalid)
	}
	if now.IsZero() {
		now = time.Now()
	}
	if strings.TrimSpace(signatureHeader) == "" {
		return nil, fmt.Errorf("%w: %s is required", ErrSignatureInvalid, SignatureHeader)
	}
	timestamp, signatures, err := parseSignatureHeader(signatureHeader)
	if err != nil {
		return nil, err
	}
	tolerance := cfg.ToleranceSeconds
	if tolerance == 0 {
		tolerance = defaultToleranceSeconds
	}
	if tolerance > 0 {
		delta := math.Abs(float64(now.Unix() - timestamp))
		if delta > float64(tolerance) {
			return nil, fmt.Errorf("%w: timestamp outside tolerance", ErrSignatureInvalid)
		}
	}

	expected := computeSignature(cfg.Secret, timestamp, body)
	matched := false
	for _, sig := range signatures {
		if hmac.Equal([]byte(expected), []byte(sig)) {
			matched = true
			break
		}
	}
	if !matched {
		return nil, ErrSignatureInvalid
	}

	var event Event
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPayloadInvalid, err)
	}
	event.Type = strings.TrimSpace(event.Type)
	if event.Type != EventSettled && event.Type != EventFailed {
		return nil, fmt.Errorf("%w: unsupported event type %q", ErrPayloadInvalid, event.Type)
	}
	event.Reference = strings.TrimSpace(event.Reference)
	if event.Reference == "" {
		// the event id doubles as idempotency key when the gateway omits a reference
		event.Reference = strings.TrimSpace(event.ID)
	}
	return &event, nil
}

func computeSignature(secret string, timestamp int64, body []byte) string {
	payload := strconv.FormatInt(timestamp, 10) + "." + string(body)
	h := hmac.New(sha256.New, []byte(secret))
	_, _ = h.Write([]byte(payload))
	return hex.EncodeToString(h.Sum(nil))
}

func parseSignatureHeader(signatureHeader string) (int64, []string, error) {
	timestamp := int64(0)
	signatures := make([]string, 0, 1)
	for _, part := range strings.Split(signatureHeader, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			continue
		}
		value := strings.TrimSpace(kv[1])
		switch strings.TrimSpace(kv[0]) {
		case "t":
			parsed, err := strconv.ParseInt(value, 10, 64)
			if err != nil || parsed <= 0 {
				return 0, nil, fmt.Errorf("%w: invalid timestamp", ErrSignatureInvalid)
			}
			timestamp = parsed
		case "v1":
			if value != "" {
				signatures = append(signatures, strings.ToLower(value))
			}
		}
	}
	if timestamp <= 0 {
		return 0, nil, fmt.Errorf("%w: timestamp is missing", ErrSignatureInvalid)
	}
	if len(signatures) == 0 {
		return 0, nil, fmt.Errorf("%w: v1 signature is missing", ErrSignatureInvalid)
	}
	return timestamp, signatures, nil
}
