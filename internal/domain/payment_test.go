package domain_test

import (
	"testing"
	"time"

	"github.com/vladislavdragonenkov/shop/internal/domain"
)

func makeIntent() domain.PaymentIntent {
	now := time.Now().UTC()
	return domain.PaymentIntent{
		ID:          "intent-1",
		OrderID:     "order-1",
		SessionID:   "cs_test_123",
		Status:      domain.PaymentStatusPending,
		AmountMinor: 2500,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestPaymentIntentValidate_Ok(t *testing.T) {
	intent := makeIntent()
	if errs := intent.Validate(); len(errs) != 0 {
		t.Fatalf("expected no validation errors, got %v", errs)
	}
}

func TestPaymentIntentValidate_Errors(t *testing.T) {
	cases := []struct {
		name string
		mut  func(p *domain.PaymentIntent)
	}{
		{
			name: "no order",
			mut: func(p *domain.PaymentIntent) {
				p.OrderID = ""
			},
		},
		{
			name: "no session",
			mut: func(p *domain.PaymentIntent) {
				p.SessionID = ""
			},
		},
		{
			name: "negative amount",
			mut: func(p *domain.PaymentIntent) {
				p.AmountMinor = -1
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			intent := makeIntent()
			tc.mut(&intent)
			if len(intent.Validate()) == 0 {
				t.Fatalf("expected validation errors for case %s", tc.name)
			}
		})
	}
}

func TestPaymentStatusTransitions(t *testing.T) {
	cases := []struct {
		from    domain.PaymentStatus
		to      domain.PaymentStatus
		allowed bool
	}{
		{domain.PaymentStatusPending, domain.PaymentStatusPaid, true},
		{domain.PaymentStatusPending, domain.PaymentStatusFailed, true},
		{domain.PaymentStatusPaid, domain.PaymentStatusRefunded, true},
		{domain.PaymentStatusPaid, domain.PaymentStatusPending, false},
		{domain.PaymentStatusFailed, domain.PaymentStatusPaid, false},
		{domain.PaymentStatusRefunded, domain.PaymentStatusPaid, false},
	}

	for _, tc := range cases {
		if got := tc.from.CanTransitionTo(tc.to); got != tc.allowed {
			t.Fatalf("%s -> %s: expected allowed=%v, got %v", tc.from, tc.to, tc.allowed, got)
		}
	}
}

func TestPaymentStatusValid(t *testing.T) {
	if !domain.PaymentStatusPaid.Valid() {
		t.Fatal("paid must be valid")
	}
	if domain.PaymentStatus("settled").Valid() {
		t.Fatal("unknown payment status must be invalid")
	}
}
