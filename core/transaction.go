package core

import (
	"time"
)

// assembleTransactionRequest builds the outbound transaction-request
// envelope from state I's flags and the current buffers (C6, spec.md
// §4.6). The envelope shape is fixed; only the data fields vary.
func (t *Terminal) assembleTransactionRequest(s *TransactionRequestState) map[string]any {
	data := map[string]any{
		"luno":                        t.luno(),
		"top_of_receipt":              "1",
		"message_coordination_number": string(t.nextMCN()),
		"time_variant_number":         timeVariantNumber(),
		"correlation_id":              newCorrelationID(),
	}

	if s.SendTrack2 == "001" {
		if t.card != nil {
			data["track2"] = t.card.Track2
		} else {
			t.logWarn("send_track2 requested but no card present", nil)
		}
	}
	if s.SendOperationCode == "001" {
		data["operation_code"] = t.buffers.Get(BufferOpcode)
	}
	if s.SendAmountData == "001" {
		data["amount"] = t.buffers.Get(BufferAmount)
	}

	t.attachPINBlock(data, s.SendPINBuffer)
	t.attachBufferBC(data, s.SendBufferBC)

	return map[string]any{
		"messageId": "TransactionRequest",
		"data":      data,
	}
}

func (t *Terminal) attachPINBlock(data map[string]any, sendPINBuffer string) {
	switch sendPINBuffer {
	case "001", "129":
	case "000", "128", "":
		return
	default:
		t.logWarn("send_pin_buffer: unrecognized value", map[string]any{"value": sendPINBuffer})
		return
	}
	pin := t.buffers.Get(BufferPIN)
	if pin == "" || t.card == nil || t.card.Number == "" {
		t.logWarn("pin block omitted: missing pin, card, or pan", nil)
		return
	}
	block, err := t.crypto.GetEncryptedPIN(pin, t.card.Number)
	if err != nil {
		t.logWarn("pin block encryption failed", map[string]any{"error": err.Error()})
		return
	}
	data["pin_block"] = block
}

func (t *Terminal) attachBufferBC(data map[string]any, sendBufferBC string) {
	switch sendBufferBC {
	case "000", "":
	case "001":
		data["buffer_b"] = t.buffers.Get(BufferB)
	case "002":
		data["buffer_c"] = t.buffers.Get(BufferC)
	case "003":
		data["buffer_b"] = t.buffers.Get(BufferB)
		data["buffer_c"] = t.buffers.Get(BufferC)
	default:
		t.logWarn("send_buffer_B_buffer_C: extension-state value not supported", map[string]any{"value": sendBufferBC})
	}
}

// assembleInteractiveRequest builds the request for an in-flight
// interactive transaction (state I, interactive_transaction == true):
// the first pending input is copied into the request rather than being
// assembled from state flags (spec.md §4.5).
func (t *Terminal) assembleInteractiveRequest(pending string) map[string]any {
	return map[string]any{
		"messageId": "TransactionRequest",
		"data": map[string]any{
			"luno":                        t.luno(),
			"top_of_receipt":              "1",
			"message_coordination_number": string(t.nextMCN()),
			"time_variant_number":         timeVariantNumber(),
			"correlation_id":              newCorrelationID(),
			"interactive_data":            pending,
		},
	}
}

func (t *Terminal) luno() string {
	if v, ok := t.settings.Get("host.luno"); ok && v != "" {
		return v
	}
	return DefaultLUNO
}

// timeVariantNumber returns the first 8 numeric characters of the current
// wall-clock timestamp in ISO form (spec.md §4.6), i.e. the date portion
// of an RFC3339 timestamp.
func timeVariantNumber() string {
	iso := time.Now().UTC().Format(time.RFC3339)
	digits := make([]byte, 0, 8)
	for i := 0; i < len(iso) && len(digits) < 8; i++ {
		if iso[i] >= '0' && iso[i] <= '9' {
			digits = append(digits, iso[i])
		}
	}
	for len(digits) < 8 {
		digits = append(digits, '0')
	}
	return string(digits)
}
