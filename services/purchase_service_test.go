package services

import (
	"context"
	"errors"
	"testing"

	"github.com/skillforest/lms-api/apperr"
	"github.com/skillforest/lms-api/model"
	"github.com/skillforest/lms-api/services/payment"
)

// fakeGateway stands in for the payment gateway in tests
type fakeGateway struct {
	lastInput payment.CheckoutInput
	fail      bool
}

func (f *fakeGateway) CreateCheckoutSession(ctx context.Context, in payment.CheckoutInput) (*payment.CheckoutSession, error) {
	if f.fail {
		return nil, apperr.Upstream("gateway is down")
	}
	f.lastInput = in
	return &payment.CheckoutSession{ID: "cs_test_123", URL: "https://pay.example.com/cs_test_123"}, nil
}

func TestPurchaseAmount(t *testing.T) {
	cases := []struct {
		price    float64
		discount float64
		want     float64
	}{
		{1000, 20, 800},
		{1000, 0, 1000},
		{1000, 100, 0},
		{49.99, 50, 25}, // 24.995 rounds up to the cent
	}

	for _, tc := range cases {
		c := &model.Course{Price: tc.price, DiscountPercent: tc.discount}
		if got := PurchaseAmount(c); got != tc.want {
			t.Errorf("PurchaseAmount(%v, %v%%) = %v, want %v", tc.price, tc.discount, got, tc.want)
		}
	}
}

func TestInitiatePurchase(t *testing.T) {
	db := newTestDB(t)
	gateway := &fakeGateway{}
	svc := NewPurchaseService(db, gateway, "USD")
	ctx := context.Background()

	educator := createEducator(t, db, "seller@example.com")
	course := createCourse(t, db, educator.ID, 1000, 20)
	buyer := createStudent(t, db, "buyer@example.com")

	result, err := svc.Initiate(ctx, buyer.ID, course.ID, "https://app.example.com")
	if err != nil {
		t.Fatalf("initiate failed: %v", err)
	}

	if result.Purchase.Amount != 800 {
		t.Errorf("amount = %v, want 800", result.Purchase.Amount)
	}
	if result.Purchase.Status != model.PurchaseStatusPending {
		t.Errorf("status = %q, want pending", result.Purchase.Status)
	}
	if result.Purchase.Reference == "" {
		t.Error("purchase reference is empty")
	}
	if result.CheckoutURL != "https://pay.example.com/cs_test_123" {
		t.Errorf("checkout URL = %q", result.CheckoutURL)
	}
	if result.Purchase.CheckoutSessionID != "cs_test_123" {
		t.Errorf("session ID = %q", result.Purchase.CheckoutSessionID)
	}

	if gateway.lastInput.Amount != 800 {
		t.Errorf("gateway saw amount %v, want 800", gateway.lastInput.Amount)
	}
	if gateway.lastInput.SuccessURL != "https://app.example.com/loading/my-enrollments" {
		t.Errorf("success URL = %q", gateway.lastInput.SuccessURL)
	}
	if gateway.lastInput.Reference != result.Purchase.Reference {
		t.Error("gateway reference does not match the purchase")
	}
}

func TestInitiatePurchaseGuards(t *testing.T) {
	db := newTestDB(t)
	svc := NewPurchaseService(db, &fakeGateway{}, "USD")
	ctx := context.Background()

	educator := createEducator(t, db, "guard-seller@example.com")
	course := createCourse(t, db, educator.ID, 100, 0)
	buyer := createStudent(t, db, "guard-buyer@example.com")

	if _, err := svc.Initiate(ctx, 9999, course.ID, "https://a"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("missing user: got %v, want ErrNotFound", err)
	}
	if _, err := svc.Initiate(ctx, buyer.ID, 9999, "https://a"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("missing course: got %v, want ErrNotFound", err)
	}

	// An enrolled user cannot buy again
	enroll(t, db, buyer.ID, course.ID)
	if _, err := svc.Initiate(ctx, buyer.ID, course.ID, "https://a"); !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("double purchase: got %v, want ErrConflict", err)
	}
}

func TestInitiatePurchaseGatewayDown(t *testing.T) {
	db := newTestDB(t)
	svc := NewPurchaseService(db, &fakeGateway{fail: true}, "USD")
	ctx := context.Background()

	educator := createEducator(t, db, "down-seller@example.com")
	course := createCourse(t, db, educator.ID, 100, 0)
	buyer := createStudent(t, db, "down-buyer@example.com")

	_, err := svc.Initiate(ctx, buyer.ID, course.ID, "https://a")
	if !errors.Is(err, apperr.ErrUpstream) {
		t.Fatalf("got %v, want ErrUpstream", err)
	}

	// The pending row survives for the expiry job
	var count int64
	db.Model(&model.Purchase{}).Where("status = ?", model.PurchaseStatusPending).Count(&count)
	if count != 1 {
		t.Errorf("pending purchases = %d, want 1", count)
	}
}
