package payment

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/vladislavdragonenkov/shop/internal/domain"
)

const testSecret = "whsec_test"

func newTestVerifier(now time.Time) *SignatureVerifier {
	v := NewSignatureVerifier(testSecret, DefaultSignatureTolerance)
	v.now = func() time.Time { return now }
	return v
}

func TestSignatureVerifier_Valid(t *testing.T) {
	now := time.Now()
	body := []byte(`{"type":"checkout.session.completed"}`)
	header := Sign(testSecret, now, body)

	v := newTestVerifier(now)
	if err := v.Verify(body, header); err != nil {
		t.Fatalf("expected valid signature, got %v", err)
	}
}

func TestSignatureVerifier_TamperedBody(t *testing.T) {
	now := time.Now()
	body := []byte(`{"amount":100}`)
	header := Sign(testSecret, now, body)

	v := newTestVerifier(now)
	err := v.Verify([]byte(`{"amount":100000}`), header)
	if !errors.Is(err, domain.ErrWebhookSignature) {
		t.Fatalf("expected signature error, got %v", err)
	}
}

func TestSignatureVerifier_WrongSecret(t *testing.T) {
	now := time.Now()
	body := []byte(`{}`)
	header := Sign("whsec_other", now, body)

	v := newTestVerifier(now)
	if err := v.Verify(body, header); !errors.Is(err, domain.ErrWebhookSignature) {
		t.Fatalf("expected signature error, got %v", err)
	}
}

func TestSignatureVerifier_StaleTimestamp(t *testing.T) {
	now := time.Now()
	body := []byte(`{}`)
	header := Sign(testSecret, now.Add(-10*time.Minute), body)

	v := newTestVerifier(now)
	if err := v.Verify(body, header); !errors.Is(err, domain.ErrWebhookSignature) {
		t.Fatalf("expected stale timestamp rejection, got %v", err)
	}
}

func TestSignatureVerifier_FutureTimestamp(t *testing.T) {
	now := time.Now()
	body := []byte(`{}`)
	header := Sign(testSecret, now.Add(10*time.Minute), body)

	v := newTestVerifier(now)
	if err := v.Verify(body, header); !errors.Is(err, domain.ErrWebhookSignature) {
		t.Fatalf("expected future timestamp rejection, got %v", err)
	}
}

func TestSignatureVerifier_MalformedHeader(t *testing.T) {
	v := newTestVerifier(time.Now())

	cases := []string{
		"",
		"garbage",
		"t=123",
		"v1=deadbeef",
		"t=abc,v1=deadbeef",
		"t=123,v1=notahex!",
	}
	for _, header := range cases {
		if err := v.Verify([]byte(`{}`), header); !errors.Is(err, domain.ErrWebhookSignature) {
			t.Fatalf("header %q: expected signature error, got %v", header, err)
		}
	}
}

func TestSign_HeaderFormat(t *testing.T) {
	header := Sign(testSecret, time.Unix(1700000000, 0), []byte(`{}`))
	if !strings.HasPrefix(header, "t=1700000000,v1=") {
		t.Fatalf("unexpected header format: %q", header)
	}
}
