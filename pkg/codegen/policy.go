package codegen

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"go/token"
	"sort"

	"github.com/platinummonkey/avrobuild/pkg/codegen/backends"
	"github.com/platinummonkey/avrobuild/pkg/codegen/config"
	"github.com/sirupsen/logrus"
)

// StringType selects the Go representation of Avro strings
type StringType string

const (
	// StringTypeCharSequence maps strings to []byte views
	StringTypeCharSequence StringType = "CharSequence"
	// StringTypeString maps strings to string
	StringTypeString StringType = "String"
	// StringTypeUtf8 maps strings to interned unique.Handle[string] values
	StringTypeUtf8 StringType = "Utf8"
)

// FieldVisibility selects how record fields are exposed
type FieldVisibility string

const (
	FieldVisibilityPrivate          FieldVisibility = "private"
	FieldVisibilityPublic           FieldVisibility = "public"
	FieldVisibilityPublicDeprecated FieldVisibility = "public_deprecated"
)

// Policy is the set of output options applied to every compiler call of one
// build
type Policy struct {
	StringType               StringType      `yaml:"string_type" json:"string_type"`
	FieldVisibility          FieldVisibility `yaml:"field_visibility" json:"field_visibility"`
	EnableDecimalLogicalType bool            `yaml:"enable_decimal_logical_type" json:"enable_decimal_logical_type"`
	ValidateNamespace        bool            `yaml:"validate_namespace" json:"validate_namespace"`
	OptionalGetters          bool            `yaml:"optional_getters" json:"optional_getters"`

	// Backend names the emission backend whose capabilities gate the options above
	Backend string `yaml:"backend" json:"backend"`

	// ModulePath is the import path of the output tree
	ModulePath string `yaml:"module_path" json:"module_path"`

	// DefaultPackage holds types declared without a namespace
	DefaultPackage string `yaml:"default_package" json:"default_package"`

	templateSet string
}

// DefaultPolicy returns the policy used when nothing is configured
func DefaultPolicy() Policy {
	return Policy{
		StringType:               StringTypeString,
		FieldVisibility:          FieldVisibilityPublic,
		EnableDecimalLogicalType: true,
		ValidateNamespace:        false,
		OptionalGetters:          false,
		Backend:                  backends.BackendClassic,
		ModulePath:               config.DefaultModulePath,
		DefaultPackage:           config.DefaultPackage,
	}
}

// Validate checks that every option holds a recognized value
func (p Policy) Validate() error {
	switch p.StringType {
	case StringTypeCharSequence, StringTypeString, StringTypeUtf8:
	default:
		return fmt.Errorf("%w: string type %q", ErrUnsupportedOption, p.StringType)
	}

	switch p.FieldVisibility {
	case FieldVisibilityPrivate, FieldVisibilityPublic, FieldVisibilityPublicDeprecated:
	default:
		return fmt.Errorf("%w: field visibility %q", ErrUnsupportedOption, p.FieldVisibility)
	}

	if p.ModulePath == "" {
		return fmt.Errorf("%w: module path is required", ErrUnsupportedOption)
	}
	if !token.IsIdentifier(p.DefaultPackage) || token.IsKeyword(p.DefaultPackage) {
		return fmt.Errorf("%w: default package %q is not a valid package name", ErrUnsupportedOption, p.DefaultPackage)
	}
	return nil
}

// Effective resolves the policy against the selected backend. Options the
// backend cannot honour are switched off; this is never an error.
func (p Policy) Effective(backend *backends.BackendSpec, log *logrus.Logger) Policy {
	if log == nil {
		log = logrus.New()
	}

	if p.OptionalGetters && !backend.Supports(backends.CapabilityOptionalGetters) {
		log.WithFields(logrus.Fields{
			"backend": backend.ID,
			"version": backend.Version,
		}).Debug("Backend does not support optional getters, ignoring option")
		p.OptionalGetters = false
	}
	if p.EnableDecimalLogicalType && !backend.Supports(backends.CapabilityDecimalLogicalType) {
		log.WithField("backend", backend.ID).Debug("Backend does not support decimal logical types, ignoring option")
		p.EnableDecimalLogicalType = false
	}

	p.Backend = backend.ID
	p.templateSet = backend.TemplateSet
	return p
}

// Digest returns a stable hash of every option. Changing any option changes
// the digest, which invalidates the compile fingerprint.
func (p Policy) Digest() string {
	options := map[string]string{
		"string_type":                 string(p.StringType),
		"field_visibility":            string(p.FieldVisibility),
		"enable_decimal_logical_type": fmt.Sprint(p.EnableDecimalLogicalType),
		"validate_namespace":          fmt.Sprint(p.ValidateNamespace),
		"optional_getters":            fmt.Sprint(p.OptionalGetters),
		"backend":                     p.Backend,
		"module_path":                 p.ModulePath,
		"default_package":             p.DefaultPackage,
	}

	keys := make([]string, 0, len(options))
	for k := range options {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	hasher := sha256.New()
	for _, k := range keys {
		hasher.Write([]byte(k))
		hasher.Write([]byte{0})
		hasher.Write([]byte(options[k]))
		hasher.Write([]byte{0})
	}
	return hex.EncodeToString(hasher.Sum(nil))
}

func (p Policy) templateSetName() string {
	if p.templateSet == "" {
		return "classic"
	}
	return p.templateSet
}
