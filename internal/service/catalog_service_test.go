package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDiscountPercent(t *testing.T) {
	assert.Equal(t, 0, discountPercent(0, 0))
	assert.Equal(t, 0, discountPercent(-100, 50))
	assert.Equal(t, 0, discountPercent(1000, 1000))
	assert.Equal(t, 50, discountPercent(1000, 500))
	assert.Equal(t, 33, discountPercent(300, 200))
	assert.Equal(t, 100, discountPercent(1000, 0))
}
