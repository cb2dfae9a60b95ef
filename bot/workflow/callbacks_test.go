package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCallback(t *testing.T) {
	tests := []struct {
		data   string
		prefix string
		ids    []int64
		ok     bool
	}{
		{data: "trip_city_12_3", prefix: "trip_city", ids: []int64{12, 3}, ok: true},
		{data: "trip_12", prefix: "trip", ids: []int64{12}, ok: true},
		{data: "my_trips", prefix: "my_trips", ok: true},
		{data: "a_1_2_3", prefix: "a_1", ids: []int64{2, 3}, ok: true},
		{data: "42", prefix: "42", ok: true},
		{data: "", ok: false},
		{data: "trip_99999999999999999999", ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.data, func(t *testing.T) {
			cb, ok := ParseCallback(tt.data)
			assert.Equal(t, tt.ok, ok)
			if !tt.ok {
				return
			}
			assert.Equal(t, tt.prefix, cb.Prefix)
			assert.Equal(t, tt.ids, cb.IDs)
		})
	}
}

func TestBuildCallbackRoundTrip(t *testing.T) {
	data := BuildCallback("trip_note_visibility", 7, 15)
	assert.Equal(t, "trip_note_visibility_7_15", data)
	cb, ok := ParseCallback(data)
	assert.True(t, ok)
	assert.Equal(t, []int64{7, 15}, cb.IDs)
}
