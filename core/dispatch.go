package core

// HostMessage is the inbound wire envelope from the host, carried as a
// loosely-typed map the way the teacher's chain-sync handlers treat
// arbitrary peer payloads before picking fields out of them. Callers
// (transport-layer decoders) are responsible for producing Data from the
// wire format; the dispatcher never parses bytes itself.
type HostMessage struct {
	MessageClass string
	Data         map[string]any
}

// StatusDescriptor codes for the solicited-status reply (spec.md §4.7).
const (
	DescriptorReady         = "9"
	DescriptorCommandReject = "A"
	// DescriptorSpecificCommandReject is reserved: spec.md §7 routes every
	// rejected command through DescriptorCommandReject, never this one.
	DescriptorSpecificCommandReject = "C"
	DescriptorTerminalState         = "F"
)

// HostReply is the outbound solicited-status reply (spec.md §4.7's
// envelope: {messageId: "ReadyState", data: {...}}).
type HostReply struct {
	MessageID string
	Data      map[string]any
}

func readyReply(lunoATM, statusDescriptor string, extra map[string]any) HostReply {
	data := map[string]any{
		"LUNO_ATM":         lunoATM,
		"StatusDescriptor": statusDescriptor,
	}
	for k, v := range extra {
		data[k] = v
	}
	return HostReply{MessageID: "ReadyState", Data: data}
}

// Dispatch classifies and handles an inbound host message (C7, spec.md
// §4.7), returning the solicited-status reply to send back.
func (t *Terminal) Dispatch(msg HostMessage) HostReply {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch msg.MessageClass {
	case "TerminalCommand":
		return t.dispatchTerminalCommand(msg.Data)
	case "DataCommand", "CustomizationCommand":
		return t.dispatchDataCommand(msg.Data)
	case "InteractiveTransactionResponse":
		return t.dispatchInteractiveTransactionResponse(msg.Data)
	case "ExtendedEncryptionKeyInformation":
		return t.dispatchExtendedEncryptionKeyInformation(msg.Data)
	case "TransactionReplyCommand":
		return t.dispatchTransactionReplyCommand(msg.Data)
	case "EMVConfiguration":
		return readyReply(t.luno(), DescriptorReady, nil)
	default:
		t.logWarn("dispatch: unknown message class", map[string]any{"class": msg.MessageClass})
		return readyReply(t.luno(), DescriptorCommandReject, nil)
	}
}

func (t *Terminal) dispatchTerminalCommand(data map[string]any) HostReply {
	code, _ := data["command_code"].(string)
	switch code {
	case "GoInService":
		t.setStatus(StatusInService)
		start := t.initialScreenNumber
		if start == "" {
			start = "000"
		}
		t.buffers.InitBuffers()
		t.fdks.Clear()
		t.driveStateLocked(start)
		return readyReply(t.luno(), DescriptorReady, nil)
	case "GoOutOfService":
		t.setStatus(StatusOutOfService)
		t.buffers.InitBuffers()
		t.fdks.Clear()
		t.card = nil
		return readyReply(t.luno(), DescriptorReady, nil)
	case "SendConfigurationInformation":
		return readyReply(t.luno(), DescriptorTerminalState, t.configurationInformationPayload())
	case "SendConfigurationID":
		return readyReply(t.luno(), DescriptorTerminalState, map[string]any{"config_id": t.configID})
	case "SendSupplyCounters":
		reply := readyReply(t.luno(), DescriptorTerminalState, t.supplyCountersPayload())
		reply.Data["SubStatusDescriptor"] = "2"
		return reply
	default:
		t.logWarn("dispatch: unknown terminal command", map[string]any{"command_code": code})
		return readyReply(t.luno(), DescriptorCommandReject, nil)
	}
}

func (t *Terminal) configurationInformationPayload() map[string]any {
	return map[string]any{
		"config_id":              t.configID,
		"hardware_fitness":       t.hardware.GetHardwareFitness(),
		"hardware_configuration": t.hostConfig.HardwareConfiguration,
		"supplies_status":        t.hardware.GetSuppliesStatus(),
		"sensor_status":          t.hostConfig.SensorStatus,
		"release_number":         t.hardware.GetReleaseNumber(),
		"ndc_software_id":        t.hardware.GetHardwareID(),
	}
}

func (t *Terminal) supplyCountersPayload() map[string]any {
	c := t.counters
	return map[string]any{
		"config_id":                  t.configID,
		"TSN":                        c.TSN,
		"transaction_count":          c.TransactionCount,
		"notes_in_cassettes":         c.NotesInCassettes,
		"notes_rejected":             c.NotesRejected,
		"notes_dispensed":            c.NotesDispensed,
		"last_trxn_notes_dispensed":  c.LastTrxnNotesDispensed,
		"card_captured":              c.CardCaptured,
		"envelopes_deposited":        c.EnvelopesDeposited,
		"camera_film_remaining":      c.CameraFilmRemaining,
		"last_envelope_serial":       c.LastEnvelopeSerial,
	}
}

func (t *Terminal) dispatchDataCommand(data map[string]any) HostReply {
	ident, _ := data["message_identifier"].(string)
	var ok bool
	var err error
	switch ident {
	case "ScreenDataLoad":
		raw, _ := data["raw"].([]byte)
		ok, err = t.screens.Add(ScreenData{Number: stringField(data, "number"), Raw: raw})
	case "StateTablesLoad":
		raw, _ := data["raw"].([]byte)
		ok, err = t.states.Add(StateData{Number: stringField(data, "number"), Raw: raw})
	case "FITDataLoad":
		raw, _ := data["raw"].([]byte)
		ok, err = t.fits.Add(raw)
	case "ConfigurationIDNumberLoad":
		id := stringField(data, "config_id")
		t.setConfigID(id)
		ok = true
	case "EnhancedConfigurationDataLoad":
		ok = true
		t.applyEnhancedConfiguration(data)
	default:
		t.logWarn("dispatch: unknown data command identifier", map[string]any{"message_identifier": ident})
		return readyReply(t.luno(), DescriptorCommandReject, nil)
	}
	if err != nil {
		t.logError("dispatch: data command failed", map[string]any{"message_identifier": ident, "error": err.Error()})
		return readyReply(t.luno(), DescriptorCommandReject, nil)
	}
	if !ok {
		return readyReply(t.luno(), DescriptorCommandReject, nil)
	}
	return readyReply(t.luno(), DescriptorReady, nil)
}

// applyEnhancedConfiguration applies the {id, value} parameter array from
// an Enhanced Configuration Data Load (spec.md §4.7, §3).
func (t *Terminal) applyEnhancedConfiguration(data map[string]any) {
	params, _ := data["parameters"].([]map[string]string)
	for _, p := range params {
		id, value := p["id"], p["value"]
		switch id {
		case "000":
			t.initialScreenNumber = zeroPad(value, 3)
		case "010":
			t.hostConfig.HardwareConfiguration = value
		case "020":
			t.hostConfig.SensorStatus = value
		default:
			if id == "" {
				continue
			}
			t.hostConfig.Extra[id] = value
			t.logInfo("enhanced configuration: unrecognized parameter id stored verbatim", map[string]any{"id": id})
		}
	}
}

func (t *Terminal) dispatchInteractiveTransactionResponse(data map[string]any) HostReply {
	t.interactiveTransaction = true
	if keys, ok := data["active_keys"].(string); ok && keys != "" {
		if err := t.fdks.SetMask(keys); err != nil {
			t.logWarn("interactive transaction response: fdk mask error", map[string]any{"error": err.Error()})
		}
	}
	if text, ok := data["dynamic_screen"].(string); ok && text != "" {
		screen, err := t.screens.ParseDynamicScreenData([]byte(text))
		if err != nil {
			t.logWarn("interactive transaction response: dynamic screen parse error", map[string]any{"error": err.Error()})
		} else {
			t.display.SetScreen(screen)
		}
	}
	return readyReply(t.luno(), DescriptorReady, nil)
}

func (t *Terminal) dispatchExtendedEncryptionKeyInformation(data map[string]any) HostReply {
	modifier, _ := data["modifier"].(string)
	if modifier != "DecipherNewCommsKeyWithCurrentMasterKey" {
		t.logWarn("extended encryption key information: unsupported modifier", map[string]any{"modifier": modifier})
		return readyReply(t.luno(), DescriptorCommandReject, nil)
	}
	keyData, _ := data["key_data"].([]byte)
	length, _ := data["length"].(int)
	ok, err := t.crypto.SetCommsKey(keyData, length)
	if err != nil || !ok {
		if err != nil {
			t.logError("comms key install failed", map[string]any{"error": err.Error()})
		}
		return readyReply(t.luno(), DescriptorCommandReject, nil)
	}
	return readyReply(t.luno(), DescriptorReady, nil)
}

func (t *Terminal) dispatchTransactionReplyCommand(data map[string]any) HostReply {
	next := stringField(data, "next_state")
	if update, ok := data["screen_display_update"].(string); ok && update != "" {
		su, err := t.screens.ParseScreenDisplayUpdate([]byte(update))
		if err != nil {
			t.logWarn("transaction reply command: screen display update parse error", map[string]any{"error": err.Error()})
		} else {
			t.display.SetScreen(Screen{Text: su.Text})
		}
	}
	if notes, ok := data["notes_to_dispense"].(string); ok && notes != "" {
		t.logInfo("dispensing notes", map[string]any{"notes": notes})
		delta := digitsToInt(notes)
		t.counters.NotesDispensed = incrementModulo(t.counters.NotesDispensed, delta, 20)
		t.counters.LastTrxnNotesDispensed = zeroPad(notes, 20)
	}
	if printerData, ok := data["printer_data"].(string); ok && printerData != "" {
		t.logInfo("printer data received", map[string]any{"printer_data": printerData})
	}
	if next != "" {
		t.driveStateLocked(next)
	}
	return readyReply(t.luno(), DescriptorReady, nil)
}

func stringField(data map[string]any, key string) string {
	v, _ := data[key].(string)
	return v
}

func digitsToInt(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			continue
		}
		n = n*10 + int(s[i]-'0')
	}
	return n
}
