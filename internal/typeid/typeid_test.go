package typeid

import (
	"strings"
	"testing"
)

func TestNewAndValidate(t *testing.T) {
	tests := []struct {
		gen    func() string
		prefix string
	}{
		{NewUserID, PrefixUser},
		{NewDrawingID, PrefixDrawing},
		{NewSnapshotID, PrefixSnapshot},
	}
	for _, tt := range tests {
		id := tt.gen()
		if !strings.HasPrefix(id, tt.prefix+"_") {
			t.Errorf("expected %s_ prefix, got %s", tt.prefix, id)
		}
		if err := Validate(id, tt.prefix); err != nil {
			t.Errorf("Validate(%s): %v", id, err)
		}
	}

	if err := Validate(NewUserID(), PrefixDrawing); err == nil {
		t.Error("expected prefix mismatch error")
	}
	if err := Validate("garbage", PrefixUser); err == nil {
		t.Error("expected parse error")
	}
	if a, b := NewDrawingID(), NewDrawingID(); a == b {
		t.Error("ids must be unique")
	}
}
