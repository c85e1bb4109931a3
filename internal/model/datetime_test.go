package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDateTime(t *testing.T) {
	want := time.Date(2024, time.March, 4, 1, 30, 0, 0, time.UTC)

	tests := []struct {
		name  string
		input string
		want  time.Time
	}{
		{"naive T separator", "2024-03-04T01:30:00", want},
		{"naive space separator", "2024-03-04 01:30:00", want},
		{"naive without seconds", "2024-03-04T01:30", want},
		{"naive with fraction", "2024-03-04T01:30:00.250", want.Add(250 * time.Millisecond)},
		{"utc designator", "2024-03-04T01:30:00Z", want},
		{"zero offset", "2024-03-04T01:30:00+00:00", want},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDateTime(tt.input)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got.Time), "got %s", got)
			assert.Equal(t, time.UTC, got.Location())
		})
	}

	for _, input := range []string{"next monday", "2024-03-04T09:30:00+08:00", "2024-03-03T20:30:00-05:00"} {
		_, err := ParseDateTime(input)
		assert.Error(t, err, input)
	}
}

func TestDateTimeJSON(t *testing.T) {
	var body struct {
		Start *DateTime `json:"start_dt"`
		End   *DateTime `json:"end_dt"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"start_dt":"2024-03-04T01:30:00Z","end_dt":null}`), &body))
	require.NotNil(t, body.Start)
	assert.Nil(t, body.End)

	out, err := json.Marshal(body.Start)
	require.NoError(t, err)
	assert.Equal(t, `"2024-03-04T01:30:00"`, string(out))

	assert.Error(t, json.Unmarshal([]byte(`{"start_dt":12}`), &body))
	assert.Error(t, json.Unmarshal([]byte(`{"start_dt":"2024-03-04T09:30:00+08:00"}`), &body))
}

func TestDateTimeScanKeepsWallClock(t *testing.T) {
	var d DateTime
	stored := time.Date(2024, time.March, 4, 1, 30, 0, 0, time.FixedZone("", 0))
	require.NoError(t, d.Scan(stored))
	assert.Equal(t, "2024-03-04T01:30:00", d.String())

	require.NoError(t, d.Scan([]byte("2024-03-04 02:00:00")))
	assert.Equal(t, "2024-03-04T02:00:00", d.String())

	assert.Error(t, d.Scan(42))
}

func TestAppointmentFilterMatches(t *testing.T) {
	from := time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC)
	until := from.AddDate(0, 0, 1)
	a := &Appointment{
		StartDT: NewDateTime(from.Add(time.Hour)),
		EndDT:   NewDateTime(from.Add(2 * time.Hour)),
	}

	assert.True(t, (&AppointmentFilter{From: &from, Until: &until}).Matches(a))

	late := from.Add(90 * time.Minute)
	assert.False(t, (&AppointmentFilter{From: &late}).Matches(a))

	early := from.Add(2 * time.Hour)
	assert.False(t, (&AppointmentFilter{Until: &early}).Matches(a), "end_dt must be strictly before until")
}
