// README: Gateway signature tests.
package payment

import (
	"strings"
	"testing"
)

func TestSignatureRoundTrip(t *testing.T) {
	g := NewHMACGateway("secret", "https://pay.test")

	sig := g.Sign("order1", "vendor1", 500)
	if !g.VerifySignature("order1", "vendor1", 500, sig) {
		t.Fatalf("valid signature rejected")
	}
}

func TestSignatureTamperFails(t *testing.T) {
	g := NewHMACGateway("secret", "https://pay.test")
	sig := g.Sign("order1", "vendor1", 500)

	if g.VerifySignature("order1", "vendor1", 501, sig) {
		t.Fatalf("amount tamper accepted")
	}
	if g.VerifySignature("order2", "vendor1", 500, sig) {
		t.Fatalf("order tamper accepted")
	}
	if g.VerifySignature("order1", "vendor2", 500, sig) {
		t.Fatalf("owner tamper accepted")
	}
	if g.VerifySignature("order1", "vendor1", 500, "") {
		t.Fatalf("empty signature accepted")
	}

	other := NewHMACGateway("other-secret", "https://pay.test")
	if other.VerifySignature("order1", "vendor1", 500, sig) {
		t.Fatalf("signature from wrong secret accepted")
	}
}

func TestPayURLCarriesOrderAndSignature(t *testing.T) {
	g := NewHMACGateway("secret", "https://pay.test")
	u := g.PayURL("order1", "vendor1", 500)

	if !strings.HasPrefix(u, "https://pay.test/pay?") {
		t.Fatalf("unexpected url %q", u)
	}
	if !strings.Contains(u, "order_id=order1") || !strings.Contains(u, "amount=500") || !strings.Contains(u, "sig=") {
		t.Fatalf("url missing fields: %q", u)
	}
}
