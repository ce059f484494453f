package backends

// BackendSpec describes a Go emission backend and what it can produce
type BackendSpec struct {
	// Identification
	ID          string `json:"id" yaml:"id"`                     // "classic"
	Name        string `json:"name" yaml:"name"`                 // "Classic"
	DisplayName string `json:"display_name" yaml:"display_name"` // "Classic templates (Go structs)"

	// Template set used by the emitter
	TemplateSet string `json:"template_set" yaml:"template_set"` // "classic"
	Version     string `json:"version" yaml:"version"`           // "1.11.0"

	// Feature support, resolved once when the backend is selected
	Capabilities Capabilities `json:"capabilities" yaml:"capabilities"`

	// File extensions written by the backend
	FileExtensions []string `json:"file_extensions" yaml:"file_extensions"` // [".go"]

	// Status
	Enabled      bool `json:"enabled" yaml:"enabled"`
	Stable       bool `json:"stable" yaml:"stable"`
	Experimental bool `json:"experimental" yaml:"experimental"`

	Description string `json:"description" yaml:"description"`
}

// Capabilities lists optional features a backend may lack
type Capabilities struct {
	OptionalGetters    bool `json:"optional_getters" yaml:"optional_getters"`
	DecimalLogicalType bool `json:"decimal_logical_type" yaml:"decimal_logical_type"`
}

// Validate checks if the backend spec is valid
func (bs *BackendSpec) Validate() error {
	if bs.ID == "" {
		return ErrInvalidBackendID
	}
	if bs.Name == "" {
		return ErrInvalidBackendName
	}
	if bs.TemplateSet == "" {
		return ErrInvalidTemplateSet
	}
	return nil
}

// Supports reports whether the backend provides the named capability
func (bs *BackendSpec) Supports(capability string) bool {
	switch capability {
	case CapabilityOptionalGetters:
		return bs.Capabilities.OptionalGetters
	case CapabilityDecimalLogicalType:
		return bs.Capabilities.DecimalLogicalType
	default:
		return false
	}
}

// Capability names
const (
	CapabilityOptionalGetters    = "optional_getters"
	CapabilityDecimalLogicalType = "decimal_logical_type"
)

// Common backend IDs
const (
	BackendClassic = "classic"
	BackendLegacy  = "legacy"
)
