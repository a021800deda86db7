package provider

import (
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sentence appends a valid checksum to body (without $ and *).
func sentence(body string) string {
	var sum byte
	for i := 0; i < len(body); i++ {
		sum ^= body[i]
	}
	return fmt.Sprintf("$%s*%02X", body, sum)
}

func TestValidateNMEAChecksum(t *testing.T) {
	line := sentence("GPGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,")
	assert.True(t, validateNMEAChecksum(line))
	assert.False(t, validateNMEAChecksum(line[:len(line)-1]+"0"))
	assert.False(t, validateNMEAChecksum("$GPGGA,no,checksum"))
	assert.False(t, validateNMEAChecksum("$GPGGA*ZZ"))
}

func TestParseNMEACoord(t *testing.T) {
	lat, ok := parseNMEACoord("4807.038", "N")
	require.True(t, ok)
	assert.InDelta(t, 48.1173, lat, 1e-4)

	lon, ok := parseNMEACoord("01131.000", "W")
	require.True(t, ok)
	assert.InDelta(t, -11.5167, lon, 1e-4)

	_, ok = parseNMEACoord("", "N")
	assert.False(t, ok)
	_, ok = parseNMEACoord("4807.038", "X")
	assert.False(t, ok)
}

func TestParseNMEATime(t *testing.T) {
	ts, err := parseNMEATime("123519.25", "230394")
	require.NoError(t, err)
	assert.Equal(t, time.Date(1994, 3, 23, 12, 35, 19, 250_000_000, time.UTC), ts)

	ts, err = parseNMEATime("080000", "010325")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC), ts)

	_, err = parseNMEATime("12", "230394")
	assert.Error(t, err)
}

func TestNMEAReaderAccuracySources(t *testing.T) {
	log := strings.Join([]string{
		// Epoch 1: GST present, sigma = hypot(3, 4) = 5m
		sentence("GPGGA,080000.00,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,"),
		sentence("GPGST,080000.00,1.0,2.0,1.0,0.0,3.0,4.0,6.0"),
		sentence("GPRMC,080000.00,A,4807.038,N,01131.000,E,10.0,084.4,010325,,"),
		// Epoch 2: only GGA, accuracy = HDOP x 5
		sentence("GNGGA,080001.00,4807.040,N,01131.010,E,1,08,1.2,545.4,M,46.9,M,,"),
		sentence("GNRMC,080001.00,A,4807.040,N,01131.010,E,,,010325,,"),
		"garbage line",
		sentence("GPRMC,080002.00,V,,,,,,,010325,,"), // no fix
		"$GPRMC,080003.00,A,4807.040,N,01131.010,E,,,010325,,*00", // bad checksum
		// Epoch 5: no accuracy source
		sentence("GPRMC,080004.00,A,4807.050,S,01131.020,W,0.0,,010325,,"),
	}, "\r\n")

	p := NewNMEAReader("test", strings.NewReader(log))
	require.NoError(t, p.Connect())
	defer p.Close()

	fix, err := p.Read()
	require.NoError(t, err)
	assert.InDelta(t, 48.1173, fix.Latitude, 1e-4)
	assert.InDelta(t, 11.5167, fix.Longitude, 1e-4)
	assert.InDelta(t, 5.0, fix.Accuracy, 1e-9)
	assert.InDelta(t, 5.14444, fix.Speed, 1e-4)
	require.NotNil(t, fix.Heading)
	assert.Equal(t, 84.4, *fix.Heading)
	assert.Equal(t, time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC), fix.Timestamp)

	fix, err = p.Read()
	require.NoError(t, err)
	assert.InDelta(t, 6.0, fix.Accuracy, 1e-9)
	assert.Equal(t, -1.0, fix.Speed, "speed unknown")
	assert.Nil(t, fix.Heading)

	fix, err = p.Read()
	require.NoError(t, err)
	assert.Equal(t, -1.0, fix.Accuracy)
	assert.Less(t, fix.Latitude, 0.0)
	assert.Less(t, fix.Longitude, 0.0)
	assert.Equal(t, 0.0, fix.Speed)

	_, err = p.Read()
	assert.ErrorIs(t, err, io.EOF)
}

func TestNMEAReadBeforeConnect(t *testing.T) {
	p := NewNMEAReader("test", strings.NewReader(""))
	_, err := p.Read()
	assert.Error(t, err)
}

func TestSimulated(t *testing.T) {
	start := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	p := NewSimulated(SimulatedConfig{StartLat: 48.85, StartLon: 2.35, Start: start, Interval: 2 * time.Second, Fixes: 10, Seed: 1})
	require.NoError(t, p.Connect())

	var last time.Time
	for i := 0; i < 10; i++ {
		fix, err := p.Read()
		require.NoError(t, err)
		assert.True(t, fix.Timestamp.After(last))
		last = fix.Timestamp
		if i < 3 {
			assert.Greater(t, fix.Accuracy, 10.0, "warming up")
		} else {
			assert.LessOrEqual(t, fix.Accuracy, 7.0)
		}
	}
	_, err := p.Read()
	assert.ErrorIs(t, err, io.EOF)
}
