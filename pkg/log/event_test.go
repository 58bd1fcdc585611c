package log

import "testing"

func TestEnumStrings(t *testing.T) {
	tests := []struct {
		got, want string
	}{
		{DirectionIn.String(), "IN"},
		{DirectionOut.String(), "OUT"},
		{Direction(9).String(), "UNKNOWN"},
		{LayerTransport.String(), "TRANSPORT"},
		{LayerWire.String(), "WIRE"},
		{LayerCore.String(), "CORE"},
		{Layer(9).String(), "UNKNOWN"},
		{CategoryMessage.String(), "MESSAGE"},
		{CategoryControl.String(), "CONTROL"},
		{CategoryState.String(), "STATE"},
		{CategoryError.String(), "ERROR"},
		{CategoryTimer.String(), "TIMER"},
		{Category(9).String(), "UNKNOWN"},
		{RoleDevice.String(), "DEVICE"},
		{RoleCompanion.String(), "COMPANION"},
		{Role(9).String(), "UNKNOWN"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("got %q, want %q", tt.got, tt.want)
		}
	}
}

func TestParseLayerAndCategory(t *testing.T) {
	if l, ok := ParseLayer("core"); !ok || l != LayerCore {
		t.Errorf("ParseLayer(core) = %v, %v", l, ok)
	}
	if _, ok := ParseLayer("service"); ok {
		t.Error("ParseLayer(service) should fail")
	}
	if c, ok := ParseCategory("TIMER"); !ok || c != CategoryTimer {
		t.Errorf("ParseCategory(TIMER) = %v, %v", c, ok)
	}
	if _, ok := ParseCategory("bogus"); ok {
		t.Error("ParseCategory(bogus) should fail")
	}
}
