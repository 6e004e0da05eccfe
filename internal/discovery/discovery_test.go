package discovery

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// FindHeatmapDevice itself talks to the live udev database through
// jochenvg/go-udev's cgo bindings, which has no in-process fake to swap in;
// it is exercised manually on real hardware instead. isKnownController and
// hidrawIndex are the pure decision logic underneath it and are covered
// directly.

func TestIsKnownController(t *testing.T) {
	var cases = []struct {
		name            string
		vendor, product string
		want            bool
	}{
		{"surface", "045e", "0c3e", true},
		{"surface-alt", "045e", "0c1e", true},
		{"intel-reference", "8087", "0a5c", true},
		{"intel-reference-alt", "8087", "0a5d", true},
		{"unknown-vendor", "1234", "0a5c", false},
		{"unknown-product", "8087", "ffff", false},
		{"empty", "", "", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, isKnownController(tc.vendor, tc.product))
		})
	}
}

func TestHidrawIndex(t *testing.T) {
	var cases = []struct {
		node string
		want int
	}{
		{"/dev/hidraw0", 0},
		{"/dev/hidraw17", 17},
		{"/dev/hidraw", -1},
		{"", -1},
		{"hidraw3", 3},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, hidrawIndex(tc.node), "node=%q", tc.node)
	}
}
