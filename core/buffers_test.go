package core

import "testing"

func TestBufferSetInitBuffers(t *testing.T) {
	bs := NewBufferSet(0)
	bs.AppendPIN("1")
	bs.AppendB("22")
	bs.AppendC("33")
	bs.SetAmount("100")
	bs.InitBuffers()
	if bs.Get(BufferPIN) != "" {
		t.Fatalf("expected empty PIN, got %q", bs.Get(BufferPIN))
	}
	if bs.Get(BufferB) != "" || bs.Get(BufferC) != "" {
		t.Fatalf("expected empty B/C buffers")
	}
	if got := bs.Get(BufferAmount); got != "000000000000" {
		t.Fatalf("expected zeroed amount, got %q", got)
	}
}

func TestBufferSetAppendPINRespectsMax(t *testing.T) {
	bs := NewBufferSet(4)
	for i := 0; i < 10; i++ {
		bs.AppendPIN("1")
	}
	if got := bs.Get(BufferPIN); got != "1111" {
		t.Fatalf("expected capped PIN, got %q", got)
	}
}

func TestBufferSetSetAmountShifts(t *testing.T) {
	bs := NewBufferSet(0)
	bs.SetAmount("1")
	bs.SetAmount("2")
	bs.SetAmount("3")
	if got := bs.Get(BufferAmount); got != "000000000123" {
		t.Fatalf("unexpected amount: %q", got)
	}
}

func TestBufferSetGeneralBufferCap(t *testing.T) {
	bs := NewBufferSet(0)
	long := make([]byte, MaxGeneralBufferLength)
	for i := range long {
		long[i] = '9'
	}
	bs.AppendB(string(long))
	bs.AppendB("X")
	if got := bs.Get(BufferB); got != string(long) {
		t.Fatalf("expected append beyond cap to be dropped, got %q", got)
	}
}

func TestBufferSetSetBTruncates(t *testing.T) {
	bs := NewBufferSet(0)
	long := make([]byte, MaxGeneralBufferLength+5)
	for i := range long {
		long[i] = byte('a' + i%26)
	}
	bs.SetB(string(long))
	if got := bs.Get(BufferB); len(got) != MaxGeneralBufferLength {
		t.Fatalf("expected truncated B of length %d, got %d", MaxGeneralBufferLength, len(got))
	}
}

func TestBufferSetFDKBuffer(t *testing.T) {
	bs := NewBufferSet(0)
	bs.SetFDKBuffer("C")
	if got := bs.FDKBuffer(); got != "C" {
		t.Fatalf("expected C, got %q", got)
	}
}

func TestBufferSetClearBuffer(t *testing.T) {
	bs := NewBufferSet(0)
	bs.SetB("hello")
	bs.SetC("world")
	bs.ClearBuffer(BufferB)
	if bs.Get(BufferB) != "" {
		t.Fatalf("expected B cleared")
	}
	if bs.Get(BufferC) != "world" {
		t.Fatalf("expected C untouched")
	}
}

func TestBufferSetOpcode(t *testing.T) {
	bs := NewBufferSet(0)
	if err := bs.OpcodeSetAt(0, 'X'); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	bs.OpcodeLoadTemplate("ABCDEFGH")
	if got := bs.Get(BufferOpcode); got != "ABCDEFGH" {
		t.Fatalf("unexpected opcode after template load: %q", got)
	}
}
