package backends

import (
	"testing"
)

func TestGetDefaultBackends(t *testing.T) {
	specs := GetDefaultBackends()

	if len(specs) != 2 {
		t.Errorf("expected 2 default backends, got %d", len(specs))
	}

	for _, spec := range specs {
		if err := spec.Validate(); err != nil {
			t.Errorf("default backend %s is invalid: %v", spec.ID, err)
		}
	}
}

func TestBackendCapabilities(t *testing.T) {
	tests := []struct {
		spec       *BackendSpec
		capability string
		want       bool
	}{
		{getClassicBackendSpec(), CapabilityOptionalGetters, true},
		{getLegacyBackendSpec(), CapabilityOptionalGetters, false},
		{getLegacyBackendSpec(), CapabilityDecimalLogicalType, true},
		{getClassicBackendSpec(), CapabilityDecimalLogicalType, true},
		{getClassicBackendSpec(), "unknown", false},
	}

	for _, tt := range tests {
		if got := tt.spec.Supports(tt.capability); got != tt.want {
			t.Errorf("%s.Supports(%s) = %v, want %v", tt.spec.ID, tt.capability, got, tt.want)
		}
	}
}
