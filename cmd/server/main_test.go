package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dokanpos/internal/config"
)

func TestValidateSecurityConfig(t *testing.T) {
	err := validateSecurityConfig(&config.Config{AuthSecret: ""})
	require.Error(t, err)

	err = validateSecurityConfig(&config.Config{AuthSecret: "short"})
	require.Error(t, err)

	err = validateSecurityConfig(&config.Config{AuthSecret: strings.Repeat("a", 32)})
	assert.NoError(t, err)
}
