package ryobi

import "testing"

func TestDecodeAttributeUpdate(t *testing.T) {
	door := func(s DoorState) *DoorState { return &s }
	num := func(n int) *int { return &n }
	flag := func(b bool) *bool { return &b }

	tests := []struct {
		name  string
		frame Frame
		want  Update
	}{
		{
			name: "door state with wrapped value",
			frame: Frame{
				Method: MethodAttributeUpdate,
				Params: map[string]any{
					"garageDoor_7.doorState": map[string]any{"value": float64(3)},
				},
			},
			want: Update{DoorState: door(DoorOpening)},
		},
		{
			name: "multiple attributes in one frame",
			frame: Frame{
				Method: MethodAttributeUpdate,
				Params: map[string]any{
					"garageDoor_7.doorState":      map[string]any{"value": float64(0)},
					"garageLight_7.lightState":    map[string]any{"value": true},
					"backupCharger_8.chargeLevel": map[string]any{"value": float64(85)},
				},
			},
			want: Update{
				DoorState:    door(DoorClosed),
				LightState:   flag(true),
				BatteryLevel: num(85),
			},
		},
		{
			name: "reserved envelope keys are skipped",
			frame: Frame{
				Method: MethodAttributeUpdate,
				Params: map[string]any{
					"topic":   "abc123.wskAttributeUpdateNtfy",
					"varName": "user@example.com",
					"id":      "frame-1",
				},
			},
			want: Update{},
		},
		{
			name: "foreign method yields empty update",
			frame: Frame{
				Method: "wskSubscribeReply",
				Params: map[string]any{
					"garageDoor_7.doorState": map[string]any{"value": float64(1)},
				},
			},
			want: Update{},
		},
		{
			name: "bare scalar without value container",
			frame: Frame{
				Method: MethodAttributeUpdate,
				Params: map[string]any{
					"wifiModule_0.rssi": float64(-61),
				},
			},
			want: Update{WifiRSSI: num(-61)},
		},
		{
			name: "door auxiliary sensors",
			frame: Frame{
				Method: MethodAttributeUpdate,
				Params: map[string]any{
					"garageDoor_7.motionSensor": map[string]any{"value": float64(1)},
					"garageDoor_7.vacationMode": map[string]any{"value": float64(0)},
					"garageDoor_7.sensorFlag":   map[string]any{"value": float64(1)},
				},
			},
			want: Update{Motion: num(1), VacationMode: num(0), Safety: num(1)},
		},
		{
			name: "speaker splits mic from module state",
			frame: Frame{
				Method: MethodAttributeUpdate,
				Params: map[string]any{
					"btSpeaker_2.micEnable":   map[string]any{"value": float64(1)},
					"btSpeaker_2.moduleState": map[string]any{"value": float64(0)},
				},
			},
			want: Update{Mic: num(1), Speaker: num(0)},
		},
		{
			name: "accessory modules",
			frame: Frame{
				Method: MethodAttributeUpdate,
				Params: map[string]any{
					"parkAssistLaser_1.moduleState": map[string]any{"value": float64(1)},
					"inflator_4.moduleState":        map[string]any{"value": float64(0)},
					"fan_3.speed":                   map[string]any{"value": float64(60)},
				},
			},
			want: Update{ParkAssist: num(1), Inflator: num(0), FanSpeed: num(60)},
		},
		{
			name: "unrecognised door code maps to unknown",
			frame: Frame{
				Method: MethodAttributeUpdate,
				Params: map[string]any{
					"garageDoor_7.doorState": map[string]any{"value": float64(42)},
				},
			},
			want: Update{DoorState: door(DoorUnknown)},
		},
		{
			name: "malformed value degrades to no field",
			frame: Frame{
				Method: MethodAttributeUpdate,
				Params: map[string]any{
					"garageDoor_7.doorState":      map[string]any{"value": "not-a-number"},
					"backupCharger_8.chargeLevel": map[string]any{"value": []any{1, 2}},
				},
			},
			want: Update{},
		},
		{
			name: "unknown module is ignored",
			frame: Frame{
				Method: MethodAttributeUpdate,
				Params: map[string]any{
					"masterUnit_0.something": map[string]any{"value": float64(1)},
				},
			},
			want: Update{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DecodeAttributeUpdate(tt.frame, nil)
			assertUpdate(t, got, tt.want)
		})
	}
}

func TestUpdateEmpty(t *testing.T) {
	if !(Update{}).Empty() {
		t.Error("zero update should be empty")
	}
	level := 50
	if (Update{BatteryLevel: &level}).Empty() {
		t.Error("update with a field should not be empty")
	}
}

func TestParseFrame(t *testing.T) {
	frame, err := ParseFrame([]byte(`{"method":"wskAttributeUpdateNtfy","params":{"id":"x"}}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if frame.Method != MethodAttributeUpdate {
		t.Errorf("method = %q", frame.Method)
	}

	if _, err := ParseFrame([]byte("not json")); err == nil {
		t.Error("expected error for malformed frame")
	}
}

func assertUpdate(t *testing.T, got, want Update) {
	t.Helper()
	comparePtr(t, "DoorState", got.DoorState, want.DoorState)
	comparePtr(t, "Motion", got.Motion, want.Motion)
	comparePtr(t, "VacationMode", got.VacationMode, want.VacationMode)
	comparePtr(t, "Safety", got.Safety, want.Safety)
	comparePtr(t, "LightState", got.LightState, want.LightState)
	comparePtr(t, "BatteryLevel", got.BatteryLevel, want.BatteryLevel)
	comparePtr(t, "WifiRSSI", got.WifiRSSI, want.WifiRSSI)
	comparePtr(t, "ParkAssist", got.ParkAssist, want.ParkAssist)
	comparePtr(t, "Speaker", got.Speaker, want.Speaker)
	comparePtr(t, "Mic", got.Mic, want.Mic)
	comparePtr(t, "Inflator", got.Inflator, want.Inflator)
	comparePtr(t, "FanSpeed", got.FanSpeed, want.FanSpeed)
}

func comparePtr[T comparable](t *testing.T, field string, got, want *T) {
	t.Helper()
	switch {
	case got == nil && want == nil:
	case got == nil:
		t.Errorf("%s = nil, want %v", field, *want)
	case want == nil:
		t.Errorf("%s = %v, want nil", field, *got)
	case *got != *want:
		t.Errorf("%s = %v, want %v", field, *got, *want)
	}
}
