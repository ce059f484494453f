package codegen

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExportedName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"user", "User"},
		{"first_name", "FirstName"},
		{"userId", "UserID"},
		{"HTTPServer", "HTTPServer"},
		{"DARK_BLUE", "DarkBlue"},
		{"url", "URL"},
		{"_hidden", "Hidden"},
		{"9lives", "X9lives"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, exportedName(tt.in))
		})
	}
}

func TestLowerIdent(t *testing.T) {
	assert.Equal(t, "firstName", lowerIdent(exportedName("first_name")))
	assert.Equal(t, "id", lowerIdent(exportedName("id")))
	assert.Equal(t, "urlPath", lowerIdent(exportedName("url_path")))
	assert.Equal(t, "type_", lowerIdent(exportedName("type")))
}

func TestPackageName(t *testing.T) {
	assert.Equal(t, "users", packageName("com.example.users", "avro"))
	assert.Equal(t, "avro", packageName("", "avro"))
	assert.Equal(t, "typeavro", packageName("com.example.type", "avro"))
	assert.Equal(t, "v2", packageName("com.example.2", "avro"))
	assert.Equal(t, "comexampleusers", importAlias("com.example.users", "avro"))
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "user_profile.go", fileName("UserProfile"))
	assert.Equal(t, "color.go", fileName("Color"))
	assert.Equal(t, "platform_linux_avro.go", fileName("PlatformLinux"))
	assert.Equal(t, "load_test_avro.go", fileName("LoadTest"))
	assert.Equal(t, "linux.go", fileName("Linux"))
}
