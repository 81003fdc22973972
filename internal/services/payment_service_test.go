// internal/services/payment_service_test.go
package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToMinorUnits(t *testing.T) {
	assert.Equal(t, int64(0), toMinorUnits(0))
	assert.Equal(t, int64(100), toMinorUnits(1))
	assert.Equal(t, int64(1999), toMinorUnits(19.99))
	// 0.1+0.2 style float drift must round to the right cent.
	assert.Equal(t, int64(30), toMinorUnits(0.1+0.2))
	assert.Equal(t, int64(1005), toMinorUnits(10.049999999999999))
}
