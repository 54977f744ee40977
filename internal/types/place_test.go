package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlaceValidate(t *testing.T) {
	tests := []struct {
		name    string
		place   Place
		wantErr bool
	}{
		{"valid", Place{ID: "p1", Latitude: 12.97, Longitude: 77.64, Rating: 4.5}, false},
		{"latitude out of range", Place{ID: "p1", Latitude: 91}, true},
		{"longitude out of range", Place{ID: "p1", Longitude: -181}, true},
		{"rating out of range", Place{ID: "p1", Rating: 5.1}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.place.Validate()
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestViewportCenter(t *testing.T) {
	v := Viewport{North: 13.0, South: 12.0, East: 78.0, West: 77.0}

	lat, lng := v.Center()

	assert.InDelta(t, 12.5, lat, 1e-9)
	assert.InDelta(t, 77.5, lng, 1e-9)
}
