package core

import "testing"

func TestIncrementModuloWraps(t *testing.T) {
	if got := incrementModulo("007", 3, 3); got != "010" {
		t.Fatalf("expected 010, got %q", got)
	}
	if got := incrementModulo("998", 5, 3); got != "003" {
		t.Fatalf("expected wrap to 003, got %q", got)
	}
}

func TestIncrementModuloWideWidth(t *testing.T) {
	// width 20 overflows a machine int; math/big keeps this correct.
	got := incrementModulo("00000000000000000000", 1, 20)
	if got != "00000000000000000001" || len(got) != 20 {
		t.Fatalf("unexpected wide-width result: %q", got)
	}
}

func TestZeroPad(t *testing.T) {
	if got := zeroPad("5", 3); got != "005" {
		t.Fatalf("expected 005, got %q", got)
	}
	if got := zeroPad("123456", 3); got != "456" {
		t.Fatalf("expected truncation to last 3 digits, got %q", got)
	}
}
