package kafkaout

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ShivanshCoding36/alert-aid/internal/alerts"
)

func TestSerializeToMessage(t *testing.T) {
	issued := time.Date(2026, 7, 15, 6, 0, 0, 0, time.UTC)
	a := alerts.Alert{
		ID:       "ALERT-1784102400-KAM",
		Type:     "flash_flood",
		Severity: "critical",
		Score:    0.92,
		Lat:      26.14,
		Lon:      91.73,
		IssuedAt: issued,
	}

	msg, err := serializeToMessage(a)
	require.NoError(t, err)

	assert.Equal(t, []byte("ALERT-1784102400-KAM"), msg.Key)
	assert.Contains(t, string(msg.Value), `"alert_type":"flash_flood"`)
	assert.Contains(t, string(msg.Value), `"severity":"critical"`)

	require.Len(t, msg.Headers, 3)
	assert.Equal(t, "severity", msg.Headers[0].Key)
	assert.Equal(t, []byte("critical"), msg.Headers[0].Value)
	assert.Equal(t, "alert_type", msg.Headers[1].Key)
	assert.Equal(t, []byte("flash_flood"), msg.Headers[1].Value)
	assert.Equal(t, "issued_at", msg.Headers[2].Key)
	assert.Equal(t, []byte(issued.Format(time.RFC3339)), msg.Headers[2].Value)
}
