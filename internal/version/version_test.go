package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestString(t *testing.T) {
	result := String()

	assert.Contains(t, result, "toolhost version")
	assert.Contains(t, result, Version)
	assert.Contains(t, result, "built "+BuildTime)
}

func TestDefaultValues(t *testing.T) {
	assert.Equal(t, "dev", Version)
	assert.Equal(t, "unknown", BuildTime)
}
