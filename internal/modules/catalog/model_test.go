package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOriginalPrice(t *testing.T) {
	tests := []struct {
		price    int64
		discount int
		want     int64
	}{
		{774, 10, 860},
		{1000, 0, 1000},
		{999, 33, 1491},
		{500, 100, 500},
	}
	for _, tt := range tests {
		p := &Product{Price: tt.price, Discount: tt.discount}
		assert.Equal(t, tt.want, p.OriginalPrice(), "price=%d discount=%d", tt.price, tt.discount)
	}
}

func TestRegionValid(t *testing.T) {
	assert.True(t, RegionTurkey.Valid())
	assert.False(t, Region("Mars").Valid())
}
