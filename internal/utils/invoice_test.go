package utils

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

var invoicePattern = regexp.MustCompile(`^FAC-\d{8}-\d{6}-\d{3}-\d{4}$`)

func TestGenerateInvoiceNumber_Format(t *testing.T) {
	n := GenerateInvoiceNumber()
	assert.Regexp(t, invoicePattern, n)
	assert.True(t, strings.HasPrefix(n, "FAC-"))
}
