package provider

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/jengzang/pathtrack-backend-go/internal/tracking"
	"go.bug.st/serial"
)

const (
	knotsToMPS = 0.514444
	// uereMeters converts HDOP to an accuracy estimate when no GST sentence is seen.
	uereMeters = 5.0
)

// NMEAConfig holds configuration for the NMEA provider.
type NMEAConfig struct {
	PortPath string `yaml:"port_path" json:"portPath"`
	BaudRate int    `yaml:"baud_rate" json:"baudRate"`
}

// NMEAProvider reads NMEA 0183 sentences from a serial GPS receiver or a
// recorded log and emits one fix per valid RMC sentence.
type NMEAProvider struct {
	name     string
	portPath string
	baudRate int

	port    serial.Port
	src     io.Reader
	scanner *bufio.Scanner
	parser  nmeaParser
}

// NewNMEA creates a provider for a serial receiver.
func NewNMEA(cfg NMEAConfig) *NMEAProvider {
	if cfg.BaudRate == 0 {
		cfg.BaudRate = 9600 // Standard NMEA default
	}
	return &NMEAProvider{
		name:     "NMEA " + cfg.PortPath,
		portPath: cfg.PortPath,
		baudRate: cfg.BaudRate,
	}
}

// NewNMEAReader creates a provider replaying sentences from r.
func NewNMEAReader(name string, r io.Reader) *NMEAProvider {
	return &NMEAProvider{name: "NMEA replay " + name, src: r}
}

func (n *NMEAProvider) Name() string { return n.name }

func (n *NMEAProvider) Connect() error {
	if n.src != nil {
		n.scanner = bufio.NewScanner(n.src)
		return nil
	}

	mode := &serial.Mode{
		BaudRate: n.baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(n.portPath, mode)
	if err != nil {
		return fmt.Errorf("nmea: failed to open %s: %w", n.portPath, err)
	}
	n.port = port
	n.scanner = bufio.NewScanner(port)
	log.Printf("[Provider] Connected to %s at %d baud", n.portPath, n.baudRate)
	return nil
}

func (n *NMEAProvider) Close() error {
	if n.port != nil {
		return n.port.Close()
	}
	if c, ok := n.src.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Read scans sentences until a valid RMC completes a fix.
func (n *NMEAProvider) Read() (tracking.LocationFix, error) {
	if n.scanner == nil {
		return tracking.LocationFix{}, errors.New("nmea: not connected")
	}

	for n.scanner.Scan() {
		if fix, ok := n.parser.feed(n.scanner.Text()); ok {
			return fix, nil
		}
	}
	if err := n.scanner.Err(); err != nil {
		return tracking.LocationFix{}, fmt.Errorf("nmea: read: %w", err)
	}
	return tracking.LocationFix{}, io.EOF
}

// nmeaParser keeps the GGA and GST data of the current epoch until RMC arrives.
type nmeaParser struct {
	ggaTime string
	hdop    float64
	gstTime string
	sigma   float64
}

// feed consumes one sentence and returns a fix when it completes one.
func (p *nmeaParser) feed(line string) (tracking.LocationFix, bool) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "$") || !validateNMEAChecksum(line) {
		return tracking.LocationFix{}, false
	}

	parts := splitNMEA(line)
	if len(parts[0]) != 5 {
		return tracking.LocationFix{}, false
	}
	switch parts[0][2:] {
	case "GGA":
		p.parseGGA(parts)
	case "GST":
		p.parseGST(parts)
	case "RMC":
		return p.parseRMC(parts)
	}
	return tracking.LocationFix{}, false
}

func (p *nmeaParser) parseGGA(parts []string) {
	// $GPGGA,hhmmss.ss,llll.ll,a,yyyyy.yy,a,q,ss,hdop,alt,M,geoid,M,age,ref*hh
	if len(parts) < 9 {
		return
	}
	hdop, err := strconv.ParseFloat(parts[8], 64)
	if err != nil || parts[6] == "0" {
		return
	}
	p.ggaTime, p.hdop = parts[1], hdop
}

func (p *nmeaParser) parseGST(parts []string) {
	// $GPGST,hhmmss.ss,rms,major,minor,orient,latErr,lonErr,altErr*hh
	if len(parts) < 8 {
		return
	}
	latErr, err1 := strconv.ParseFloat(parts[6], 64)
	lonErr, err2 := strconv.ParseFloat(parts[7], 64)
	if err1 != nil || err2 != nil {
		return
	}
	p.gstTime, p.sigma = parts[1], math.Hypot(latErr, lonErr)
}

func (p *nmeaParser) parseRMC(parts []string) (tracking.LocationFix, bool) {
	// $GPRMC,hhmmss.ss,A,llll.ll,a,yyyyy.yy,a,knots,course,ddmmyy,magvar,a*hh
	if len(parts) < 10 || parts[2] != "A" {
		return tracking.LocationFix{}, false
	}

	ts, err := parseNMEATime(parts[1], parts[9])
	if err != nil {
		return tracking.LocationFix{}, false
	}
	lat, okLat := parseNMEACoord(parts[3], parts[4])
	lon, okLon := parseNMEACoord(parts[5], parts[6])
	if !okLat || !okLon {
		return tracking.LocationFix{}, false
	}

	fix := tracking.LocationFix{
		Latitude:  lat,
		Longitude: lon,
		Accuracy:  -1, // unknown; judged unusable
		Speed:     -1,
		Timestamp: ts,
	}
	switch {
	case p.gstTime == parts[1]:
		fix.Accuracy = p.sigma
	case p.ggaTime == parts[1]:
		fix.Accuracy = p.hdop * uereMeters
	}
	if knots, err := strconv.ParseFloat(parts[7], 64); err == nil && knots >= 0 {
		fix.Speed = knots * knotsToMPS
	}
	if course, err := strconv.ParseFloat(parts[8], 64); err == nil {
		fix.Heading = &course
	}
	return fix, true
}

// splitNMEA splits a sentence and strips the checksum suffix.
func splitNMEA(line string) []string {
	if idx := strings.Index(line, "*"); idx >= 0 {
		line = line[:idx]
	}
	return strings.Split(strings.TrimPrefix(line, "$"), ",")
}

// parseNMEATime combines hhmmss.ss and ddmmyy into a UTC time.
func parseNMEATime(hms, dmy string) (time.Time, error) {
	if len(hms) < 6 || len(dmy) != 6 {
		return time.Time{}, fmt.Errorf("nmea: bad time %q %q", hms, dmy)
	}
	layout := "020106150405"
	value := dmy + hms[:6]
	if len(hms) > 7 && hms[6] == '.' {
		layout += "." + strings.Repeat("0", len(hms)-7)
		value += hms[6:]
	}
	return time.ParseInLocation(layout, value, time.UTC)
}

// parseNMEACoord converts NMEA ddmm.mmmm format to decimal degrees.
func parseNMEACoord(raw, dir string) (float64, bool) {
	if raw == "" || dir == "" {
		return 0, false
	}
	val, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	deg := math.Floor(val / 100)
	result := deg + (val-deg*100)/60

	switch dir {
	case "N", "E":
	case "S", "W":
		result = -result
	default:
		return 0, false
	}
	return result, true
}

// validateNMEAChecksum checks the XOR checksum after *.
func validateNMEAChecksum(line string) bool {
	idx := strings.Index(line, "*")
	if idx < 1 || idx+3 > len(line) {
		return false
	}
	var calc byte
	for i := 1; i < idx; i++ {
		calc ^= line[i]
	}
	expected, err := strconv.ParseUint(line[idx+1:idx+3], 16, 8)
	if err != nil {
		return false
	}
	return byte(expected) == calc
}
