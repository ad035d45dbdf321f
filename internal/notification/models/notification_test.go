package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimestampDecodesEveryWireForm(t *testing.T) {
	want := time.Date(2026, 5, 1, 10, 30, 0, 0, time.UTC)
	ms := want.UnixMilli()

	cases := map[string]string{
		"epoch millis":        `{"timestamp": ` + jsonInt(ms) + `}`,
		"quoted epoch millis": `{"timestamp": "` + jsonInt(ms) + `"}`,
		"rfc3339 utc":         `{"timestamp": "2026-05-01T10:30:00Z"}`,
		"rfc3339 offset":      `{"timestamp": "2026-05-01T07:30:00-03:00"}`,
		"fractional seconds":  `{"timestamp": "2026-05-01T10:30:00.000Z"}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			var n Notification
			require.NoError(t, json.Unmarshal([]byte(body), &n))
			assert.True(t, want.Equal(n.Timestamp.Time), "got %s", n.Timestamp.Time)
			assert.Equal(t, ms, n.Timestamp.Millis())
		})
	}
}

func TestTimestampRejectsGarbage(t *testing.T) {
	var n Notification
	assert.Error(t, json.Unmarshal([]byte(`{"timestamp": "yesterday"}`), &n))
	assert.Error(t, json.Unmarshal([]byte(`{"timestamp": true}`), &n))
}

func TestTimestampEncodesAsMillis(t *testing.T) {
	n := Notification{ID: "n1", Timestamp: NewTimestamp(time.UnixMilli(1_700_000_000_123))}
	out, err := json.Marshal(n)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"timestamp":1700000000123`)
}

func TestTimestampScan(t *testing.T) {
	var ts Timestamp
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.FixedZone("BRT", -3*3600))
	require.NoError(t, ts.Scan(now))
	assert.Equal(t, time.UTC, ts.Location())
	assert.True(t, now.Equal(ts.Time))

	require.NoError(t, ts.Scan(int64(42)))
	assert.Equal(t, int64(42), ts.Millis())

	assert.Error(t, ts.Scan("nope"))

	v, err := NewTimestamp(now).Value()
	require.NoError(t, err)
	assert.IsType(t, time.Time{}, v)
}

func jsonInt(v int64) string {
	out, _ := json.Marshal(v)
	return string(out)
}
