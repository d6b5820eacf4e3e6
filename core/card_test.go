package core

import "testing"

func TestParseCardValid(t *testing.T) {
	c, err := ParseCard(";4111111111111111=28011011234567890?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Number != "4111111111111111" {
		t.Fatalf("unexpected PAN: %q", c.Number)
	}
	if c.ServiceCode != "101" {
		t.Fatalf("unexpected service code: %q", c.ServiceCode)
	}
}

func TestParseCardMissingSemicolon(t *testing.T) {
	if _, err := ParseCard("4111111111111111=2801101"); err == nil {
		t.Fatalf("expected error for missing leading ';'")
	}
}

func TestParseCardMissingEquals(t *testing.T) {
	if _, err := ParseCard(";4111111111111111"); err == nil {
		t.Fatalf("expected error for missing '='")
	}
}

func TestParseCardEmptyPAN(t *testing.T) {
	if _, err := ParseCard(";=2801101"); err == nil {
		t.Fatalf("expected error for empty PAN")
	}
}

func TestParseCardTooShortAfterEquals(t *testing.T) {
	if _, err := ParseCard(";4111111111111111=280"); err == nil {
		t.Fatalf("expected error for short expiry/service-code region")
	}
}
