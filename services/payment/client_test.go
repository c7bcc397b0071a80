package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/skillforest/lms-api/apperr"
)

func sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestCreateCheckoutSession(t *testing.T) {
	var received CheckoutInput

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/checkout/sessions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("missing bearer auth, got %q", r.Header.Get("Authorization"))
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(CheckoutSession{ID: "cs_1", URL: "https://pay.test/cs_1"})
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", "whsec", 0)

	session, err := client.CreateCheckoutSession(context.Background(), CheckoutInput{
		Reference: "ref-1",
		Amount:    800,
		Currency:  "USD",
	})
	if err != nil {
		t.Fatalf("create session failed: %v", err)
	}
	if session.ID != "cs_1" || session.URL != "https://pay.test/cs_1" {
		t.Errorf("session = %+v", session)
	}
	if received.Reference != "ref-1" || received.Amount != 800 {
		t.Errorf("gateway received %+v", received)
	}
}

func TestCreateCheckoutSessionUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", "whsec", 0)

	_, err := client.CreateCheckoutSession(context.Background(), CheckoutInput{Reference: "ref-2"})
	if !errors.Is(err, apperr.ErrUpstream) {
		t.Fatalf("got %v, want ErrUpstream", err)
	}
}

func TestVerifySignature(t *testing.T) {
	client := NewClient("http://unused", "key", "secret", 0)
	body := []byte(`{"type":"checkout.completed"}`)

	if !client.VerifySignature(body, sign("secret", body)) {
		t.Error("valid signature rejected")
	}
	if client.VerifySignature(body, sign("wrong-secret", body)) {
		t.Error("signature with wrong secret accepted")
	}
	if client.VerifySignature(body, "") {
		t.Error("empty signature accepted")
	}
	if client.VerifySignature([]byte("tampered"), sign("secret", body)) {
		t.Error("tampered body accepted")
	}
}

func TestParseWebhook(t *testing.T) {
	client := NewClient("http://unused", "key", "secret", 0)

	body := []byte(`{"type":"checkout.completed","data":{"reference":"ref-9","session_id":"cs_9"}}`)
	event, err := client.ParseWebhook(body, sign("secret", body))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if event.Type != EventCheckoutCompleted {
		t.Errorf("type = %q", event.Type)
	}
	if event.Data.Reference != "ref-9" {
		t.Errorf("reference = %q", event.Data.Reference)
	}

	// Bad signature
	if _, err := client.ParseWebhook(body, "deadbeef"); !errors.Is(err, apperr.ErrForbidden) {
		t.Errorf("bad signature: got %v, want ErrForbidden", err)
	}

	// Missing reference
	noRef := []byte(`{"type":"checkout.completed","data":{}}`)
	if _, err := client.ParseWebhook(noRef, sign("secret", noRef)); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("missing reference: got %v, want ErrInvalidInput", err)
	}
}
