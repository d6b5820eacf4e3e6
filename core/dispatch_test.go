package core

import "testing"

func TestDispatchGoInServiceReplaysInitialState(t *testing.T) {
	term, states, display, _, _ := newTestTerminal()
	states.put(&State{Number: DefaultInitialScreenNumber, Type: KindClose, Close: &CloseState{ReceiptDeliveredScreen: "001"}})

	reply := term.Dispatch(HostMessage{
		MessageClass: "TerminalCommand",
		Data:         map[string]any{"command_code": "GoInService"},
	})

	if reply.MessageID != "ReadyState" {
		t.Fatalf("unexpected messageId: %q", reply.MessageID)
	}
	if reply.Data["StatusDescriptor"] != DescriptorReady {
		t.Fatalf("expected Ready descriptor, got %v", reply.Data["StatusDescriptor"])
	}
	if term.Status() != StatusInService {
		t.Fatalf("expected InService status, got %v", term.Status())
	}
	if len(display.screenNums) == 0 {
		t.Fatalf("expected the initial state to be driven")
	}
}

func TestDispatchGoOutOfService(t *testing.T) {
	term, _, _, _, _ := newTestTerminal()
	card, _ := ParseCard(";4111111111111111=28011011234567890?")
	term.card = card

	reply := term.Dispatch(HostMessage{
		MessageClass: "TerminalCommand",
		Data:         map[string]any{"command_code": "GoOutOfService"},
	})

	if reply.Data["StatusDescriptor"] != DescriptorReady {
		t.Fatalf("expected Ready descriptor")
	}
	if term.Status() != StatusOutOfService {
		t.Fatalf("expected OutOfService status, got %v", term.Status())
	}
	if term.Card() != nil {
		t.Fatalf("expected card cleared")
	}
}

func TestDispatchUnknownTerminalCommand(t *testing.T) {
	term, _, _, _, _ := newTestTerminal()
	reply := term.Dispatch(HostMessage{
		MessageClass: "TerminalCommand",
		Data:         map[string]any{"command_code": "Nonsense"},
	})
	if reply.Data["StatusDescriptor"] != DescriptorCommandReject {
		t.Fatalf("expected CommandReject for unknown command, got %v", reply.Data["StatusDescriptor"])
	}
}

func TestDispatchSendSupplyCountersSubStatus(t *testing.T) {
	term, _, _, _, _ := newTestTerminal()
	reply := term.Dispatch(HostMessage{
		MessageClass: "TerminalCommand",
		Data:         map[string]any{"command_code": "SendSupplyCounters"},
	})
	if reply.Data["SubStatusDescriptor"] != "2" {
		t.Fatalf("expected SubStatusDescriptor '2' for supply counters reply")
	}
	if reply.Data["StatusDescriptor"] != DescriptorTerminalState {
		t.Fatalf("expected TerminalState descriptor")
	}
}

func TestDispatchEnhancedConfigurationDataLoad(t *testing.T) {
	term, _, _, _, _ := newTestTerminal()
	reply := term.Dispatch(HostMessage{
		MessageClass: "DataCommand",
		Data: map[string]any{
			"message_identifier": "EnhancedConfigurationDataLoad",
			"parameters": []map[string]string{
				{"id": "000", "value": "5"},
				{"id": "010", "value": "abcd"},
				{"id": "999", "value": "ignored-key-kept"},
			},
		},
	})
	if reply.Data["StatusDescriptor"] != DescriptorReady {
		t.Fatalf("expected Ready descriptor")
	}
	if term.initialScreenNumber != "005" {
		t.Fatalf("expected zero-padded initial_screen_number '005', got %q", term.initialScreenNumber)
	}
	if term.hostConfig.HardwareConfiguration != "abcd" {
		t.Fatalf("expected hardware_configuration 'abcd', got %q", term.hostConfig.HardwareConfiguration)
	}
	if term.hostConfig.Extra["999"] != "ignored-key-kept" {
		t.Fatalf("expected unrecognized parameter id stored verbatim")
	}
}

func TestDispatchTransactionReplyCommandDispensesNotes(t *testing.T) {
	term, states, _, _, _ := newTestTerminal()
	states.put(&State{Number: "077", Type: KindClose, Close: &CloseState{ReceiptDeliveredScreen: "001"}})

	reply := term.Dispatch(HostMessage{
		MessageClass: "TransactionReplyCommand",
		Data: map[string]any{
			"next_state":        "077",
			"notes_to_dispense": "5",
		},
	})

	if reply.Data["StatusDescriptor"] != DescriptorReady {
		t.Fatalf("expected Ready descriptor")
	}
	if term.counters.LastTrxnNotesDispensed != zeroPad("5", 20) {
		t.Fatalf("unexpected last_trxn_notes_dispensed: %q", term.counters.LastTrxnNotesDispensed)
	}
	if term.currentState != "077" {
		t.Fatalf("expected state to be driven to 077, got %q", term.currentState)
	}
}

func TestDispatchInteractiveTransactionResponseParsesDynamicScreen(t *testing.T) {
	term, _, display, _, _ := newTestTerminal()

	reply := term.Dispatch(HostMessage{
		MessageClass: "InteractiveTransactionResponse",
		Data: map[string]any{
			"dynamic_screen": "ENTER AMOUNT",
		},
	})

	if reply.Data["StatusDescriptor"] != DescriptorReady {
		t.Fatalf("expected Ready descriptor")
	}
	if len(display.screens) != 1 || display.screens[0].Text != "ENTER AMOUNT" {
		t.Fatalf("expected dynamic screen to be parsed and set, got %+v", display.screens)
	}
}

func TestDispatchTransactionReplyCommandParsesScreenDisplayUpdate(t *testing.T) {
	term, states, display, _, _ := newTestTerminal()
	states.put(&State{Number: "077", Type: KindClose, Close: &CloseState{ReceiptDeliveredScreen: "001"}})

	term.Dispatch(HostMessage{
		MessageClass: "TransactionReplyCommand",
		Data: map[string]any{
			"next_state":            "077",
			"screen_display_update": "THANK YOU",
		},
	})

	if len(display.screens) != 1 || display.screens[0].Text != "THANK YOU" {
		t.Fatalf("expected screen display update to be parsed and set, got %+v", display.screens)
	}
}

func TestDispatchExtendedEncryptionKeyInformation(t *testing.T) {
	term, _, _, _, crypto := newTestTerminal()
	reply := term.Dispatch(HostMessage{
		MessageClass: "ExtendedEncryptionKeyInformation",
		Data: map[string]any{
			"modifier": "DecipherNewCommsKeyWithCurrentMasterKey",
			"key_data": make([]byte, 16),
			"length":   16,
		},
	})
	if reply.Data["StatusDescriptor"] != DescriptorReady {
		t.Fatalf("expected Ready descriptor")
	}
	if !crypto.keySet {
		t.Fatalf("expected comms key to be installed")
	}
}

func TestDispatchUnknownMessageClass(t *testing.T) {
	term, _, _, _, _ := newTestTerminal()
	reply := term.Dispatch(HostMessage{MessageClass: "SomethingElse"})
	if reply.Data["StatusDescriptor"] != DescriptorCommandReject {
		t.Fatalf("expected CommandReject for unknown message class")
	}
}
