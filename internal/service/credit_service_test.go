package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/agrimart/ordercore/internal/constants"
	"github.com/agrimart/ordercore/internal/models"
	"github.com/agrimart/ordercore/internal/repository"

	"github.com/stretchr/testify/assert"
)

func TestCreditPurchaseValidation(t *testing.T) {
	e := newTestEngine(t)
	urea := e.product(t, "Urea 45kg", 500)
	vendor := e.vendor(t, "Kisan Traders")
	small, err := e.partners.CreateVendor(CreateVendorInput{Name: "Small Agro", CreditLimit: models.NewMoneyFromInt(3000)})
	if err != nil {
		t.Fatalf("create vendor failed: %v", err)
	}

	_, err = e.credit.RequestCreditPurchase(vendorP(vendor.ID), CreditPurchaseInput{
		Items:       []CreditPurchaseItemInput{{ProductID: urea.ID, Quantity: 10}},
		TotalAmount: moneyOf("4000"),
	})
	if !errors.Is(err, ErrCreditItemsMismatch) {
		t.Fatalf("expected items mismatch, got %v", err)
	}
	_, err = e.credit.RequestCreditPurchase(vendorP(vendor.ID), CreditPurchaseInput{
		Items:       []CreditPurchaseItemInput{{ProductID: urea.ID, Quantity: 1}},
		TotalAmount: moneyOf("500"),
	})
	if !errors.Is(err, ErrCreditAmountOutOfRange) {
		t.Fatalf("expected out of range, got %v", err)
	}
	_, err = e.credit.RequestCreditPurchase(vendorP(small.ID), CreditPurchaseInput{
		Items:       []CreditPurchaseItemInput{{ProductID: urea.ID, Quantity: 10}},
		TotalAmount: moneyOf("5000"),
	})
	if !errors.Is(err, ErrInsufficientCredit) {
		t.Fatalf("expected insufficient credit, got %v", err)
	}
	_, err = e.credit.RequestCreditPurchase(buyer(7), CreditPurchaseInput{})
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("only vendors buy on credit, got %v", err)
	}
}

func TestCreditCycleRepayment(t *testing.T) {
	e := newTestEngine(t)
	urea := e.product(t, "Urea 45kg", 500)
	vendor := e.vendor(t, "Kisan Traders")
	ctx := context.Background()
	vp := vendorP(vendor.ID)

	purchase, err := e.credit.RequestCreditPurchase(vp, CreditPurchaseInput{
		Items:       []CreditPurchaseItemInput{{ProductID: urea.ID, Quantity: 10}},
		TotalAmount: moneyOf("5000"),
		Notes:       "kharif stock",
	})
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if purchase.Status != constants.CreditPurchaseStatusPending || len(purchase.Items) != 1 {
		t.Fatalf("unexpected purchase %+v", purchase)
	}
	if _, err := e.credit.ProcessPartialRepayment(ctx, vp, purchase.ID, RepaymentInput{Amount: moneyOf("100"), Reference: "rp-early"}); !errors.Is(err, ErrCreditCycleClosed) {
		t.Fatalf("pending purchase has no active cycle, got %v", err)
	}

	approved, err := e.credit.ApproveCreditPurchase(admin(), purchase.ID)
	if err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	if approved.CycleStatus != constants.CreditCycleStatusActive || approved.OutstandingAmount.String() != "5000.00" || approved.ApprovedAt == nil {
		t.Fatalf("unexpected approved purchase %+v", approved)
	}
	assertAvailableCredit(t, e, vendor.ID, "95000.00")

	cycle, err := e.credit.ProcessPartialRepayment(ctx, vp, purchase.ID, RepaymentInput{Amount: moneyOf("2000"), Method: "upi", Reference: "rp-1"})
	if err != nil {
		t.Fatalf("repayment failed: %v", err)
	}
	if cycle.OutstandingAmount.String() != "3000.00" || cycle.TotalRepaid.String() != "2000.00" {
		t.Fatalf("unexpected cycle %s %s", cycle.OutstandingAmount, cycle.TotalRepaid)
	}
	assertAvailableCredit(t, e, vendor.ID, "97000.00")

	dup, err := e.credit.ProcessPartialRepayment(ctx, vp, purchase.ID, RepaymentInput{Amount: moneyOf("2000"), Method: "upi", Reference: "rp-1"})
	if err != nil || dup.OutstandingAmount.String() != "3000.00" {
		t.Fatalf("duplicate reference must not apply twice: %+v (%v)", dup, err)
	}

	_, err = e.credit.ProcessPartialRepayment(ctx, vp, purchase.ID, RepaymentInput{Amount: moneyOf("4000"), Reference: "rp-2"})
	if !errors.Is(err, ErrRepaymentExceedsOutstanding) || !strings.Contains(PublicMessage(err), "requested ₹4000.00, outstanding ₹3000.00") {
		t.Fatalf("expected exceeds outstanding, got %v", err)
	}
	if _, err := e.credit.ProcessPartialRepayment(ctx, vendorP(vendor.ID+1), purchase.ID, RepaymentInput{Amount: moneyOf("10"), Reference: "rp-x"}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("another vendor must be denied, got %v", err)
	}

	closed, err := e.credit.ProcessPartialRepayment(ctx, admin(), purchase.ID, RepaymentInput{Amount: moneyOf("3000"), Method: "bank_transfer", Reference: "rp-3"})
	if err != nil {
		t.Fatalf("final repayment failed: %v", err)
	}
	if closed.CycleStatus != constants.CreditCycleStatusClosed || !closed.OutstandingAmount.Decimal.IsZero() || closed.ClosedAt == nil {
		t.Fatalf("cycle should close at zero: %+v", closed)
	}
	assertAvailableCredit(t, e, vendor.ID, "100000.00")

	if _, err := e.credit.ProcessPartialRepayment(ctx, vp, purchase.ID, RepaymentInput{Amount: moneyOf("1"), Reference: "rp-4"}); !errors.Is(err, ErrCreditCycleClosed) {
		t.Fatalf("closed cycle rejects repayments, got %v", err)
	}

	stored, err := e.credit.GetCreditPurchase(vp, purchase.ID)
	if err != nil || len(stored.Repayments) != 2 {
		t.Fatalf("expected 2 repayments, got %+v (%v)", stored, err)
	}
	if _, total, err := e.credit.ListCreditPurchases(vp, repository.CreditPurchaseListFilter{}); err != nil || total != 1 {
		t.Fatalf("vendor should list its purchase, got %d (%v)", total, err)
	}
}

func TestRepaymentRestoresTheRepaidAmount(t *testing.T) {
	e := newTestEngine(t)
	urea := e.product(t, "Urea 45kg", 500)
	vendor := e.vendor(t, "Kisan Traders")
	ctx := context.Background()
	vp := vendorP(vendor.ID)

	purchase, err := e.credit.RequestCreditPurchase(vp, CreditPurchaseInput{
		Items:       []CreditPurchaseItemInput{{ProductID: urea.ID, Quantity: 10}},
		TotalAmount: moneyOf("5000"),
	})
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if _, err := e.credit.ApproveCreditPurchase(admin(), purchase.ID); err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	assertAvailableCredit(t, e, vendor.ID, "95000.00")

	// credit line cut while the cycle is open
	if err := e.db.Model(&models.Vendor{}).Where("id = ?", vendor.ID).Update("credit_limit", models.NewMoneyFromInt(96000)).Error; err != nil {
		t.Fatalf("lower credit limit failed: %v", err)
	}
	if _, err := e.credit.ProcessPartialRepayment(ctx, vp, purchase.ID, RepaymentInput{Amount: moneyOf("2000"), Reference: "rp-1"}); err != nil {
		t.Fatalf("repayment failed: %v", err)
	}
	assertAvailableCredit(t, e, vendor.ID, "97000.00")
}

func TestRejectCreditPurchase(t *testing.T) {
	e := newTestEngine(t)
	urea := e.product(t, "Urea 45kg", 500)
	vendor := e.vendor(t, "Kisan Traders")
	purchase, err := e.credit.RequestCreditPurchase(vendorP(vendor.ID), CreditPurchaseInput{
		Items:       []CreditPurchaseItemInput{{ProductID: urea.ID, Quantity: 4}},
		TotalAmount: moneyOf("2000"),
	})
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	rejected, err := e.credit.RejectCreditPurchase(admin(), purchase.ID, "overdue cycle open")
	if err != nil || rejected.Status != constants.CreditPurchaseStatusRejected {
		t.Fatalf("reject failed: %+v (%v)", rejected, err)
	}
	if _, err := e.credit.ApproveCreditPurchase(admin(), purchase.ID); !errors.Is(err, ErrCreditPurchaseStatusInvalid) {
		t.Fatalf("rejected purchase cannot be approved, got %v", err)
	}
	assertAvailableCredit(t, e, vendor.ID, "100000.00")
}

func TestQuoteRepaymentTiers(t *testing.T) {
	discounts := []RepaymentTier{{Name: "early_7", MinDays: 0, MaxDays: 7, Percent: dec("2")}}
	interests := []RepaymentTier{
		{Name: "late_30", MinDays: 31, MaxDays: 60, Percent: dec("1")},
		{Name: "late_60", MinDays: 61, Percent: dec("3")},
	}
	approvedAt := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	purchase := &models.CreditPurchase{ID: 4, OutstandingAmount: moneyOf("3000"), ApprovedAt: &approvedAt}

	early := quoteRepayment(purchase, approvedAt.AddDate(0, 0, 3), discounts, interests)
	assert.Equal(t, "early_7", early.Tier)
	assert.Equal(t, "2940.00", early.AmountDue.String())
	assert.Equal(t, "-60.00", early.Adjustment.String())

	normal := quoteRepayment(purchase, approvedAt.AddDate(0, 0, 20), discounts, interests)
	assert.Equal(t, "", normal.Tier)
	assert.Equal(t, "3000.00", normal.AmountDue.String())

	late := quoteRepayment(purchase, approvedAt.AddDate(0, 0, 45), discounts, interests)
	assert.Equal(t, "late_30", late.Tier)
	assert.Equal(t, "3030.00", late.AmountDue.String())

	veryLate := quoteRepayment(purchase, approvedAt.AddDate(0, 0, 90), discounts, interests)
	assert.Equal(t, "late_60", veryLate.Tier)
	assert.Equal(t, 90, veryLate.DaysElapsed)
	assert.Equal(t, "3090.00", veryLate.AmountDue.String())
}

func assertAvailableCredit(t *testing.T, e *testEngine, vendorID uint, want string) {
	t.Helper()
	vendor, err := e.partners.GetVendor(vendorID)
	if err != nil {
		t.Fatalf("get vendor failed: %v", err)
	}
	if vendor.AvailableCredit.String() != want {
		t.Fatalf("expected available credit %s, got %s", want, vendor.AvailableCredit)
	}
}
