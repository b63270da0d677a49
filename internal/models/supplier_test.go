package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeCNPJ(t *testing.T) {
	assert.Equal(t, "12345678000195", SanitizeCNPJ("12.345.678/0001-95"))
	assert.Equal(t, "12345678000195", SanitizeCNPJ("12345678000195"))
	assert.Equal(t, "12345678000195", SanitizeCNPJ(" 12.345.678/0001-95 "))
	assert.Equal(t, "", SanitizeCNPJ("abc"))
	assert.Equal(t, "", SanitizeCNPJ(""))
}

func TestValidCNPJ(t *testing.T) {
	assert.True(t, ValidCNPJ("12.345.678/0001-95"))
	assert.True(t, ValidCNPJ("12345678000195"))
	assert.False(t, ValidCNPJ("1234567800019"))
	assert.False(t, ValidCNPJ("123456780001955"))
	assert.False(t, ValidCNPJ(""))
	assert.False(t, ValidCNPJ("not-a-cnpj"))
}

func TestFormatCNPJ(t *testing.T) {
	assert.Equal(t, "12.345.678/0001-95", FormatCNPJ("12345678000195"))
	assert.Equal(t, "12.345.678/0001-95", FormatCNPJ("12.345.678/0001-95"))

	// anything that is not 14 digits passes through untouched
	assert.Equal(t, "12345", FormatCNPJ("12345"))
	assert.Equal(t, "", FormatCNPJ(""))
}
