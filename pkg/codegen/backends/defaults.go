package backends

// GetDefaultBackends returns the built-in backend configurations
func GetDefaultBackends() []*BackendSpec {
	return []*BackendSpec{
		getClassicBackendSpec(),
		getLegacyBackendSpec(),
	}
}

func getClassicBackendSpec() *BackendSpec {
	return &BackendSpec{
		ID:          BackendClassic,
		Name:        "Classic",
		DisplayName: "Classic templates (Go structs)",
		TemplateSet: "classic",
		Version:     "1.11.0",
		Capabilities: Capabilities{
			OptionalGetters:    true,
			DecimalLogicalType: true,
		},
		FileExtensions: []string{".go"},
		Enabled:        true,
		Stable:         true,
		Description:    "Structs with accessors, enum constants and protocol interfaces",
	}
}

// The legacy backend predates optional getters
func getLegacyBackendSpec() *BackendSpec {
	return &BackendSpec{
		ID:          BackendLegacy,
		Name:        "Legacy",
		DisplayName: "Legacy templates (Go structs)",
		TemplateSet: "classic",
		Version:     "1.8.2",
		Capabilities: Capabilities{
			DecimalLogicalType: true,
		},
		FileExtensions: []string{".go"},
		Enabled:        true,
		Stable:         true,
		Description:    "Classic output without optional getters",
	}
}
