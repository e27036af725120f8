// Package datalogger reads the on-site Campbell CR1000 weather
// station. The logger is programmed to stream its table records out
// of the RS-232 port in TOA5 framing, one CSV record per scan
// interval; this client keeps a rolling window of parsed records and
// answers queries from it.
package datalogger

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.bug.st/serial"

	"github.com/tsimlabs/egs/internal/core/ports"
)

// maxRecords bounds the in-memory window, one day of 1-minute scans.
const maxRecords = 1440

const timestampLayout = "2006-01-02 15:04:05"

var ErrNoRecords = errors.New("no datalogger records received yet")

type record struct {
	table  string
	ts     time.Time
	fields map[string]any
}

// CR1000 is the serial client. Open starts a reader goroutine; all
// queries are served from the parsed window without touching the
// port.
type CR1000 struct {
	portName string
	baud     int

	mu      sync.Mutex
	port    serial.Port
	table   string
	headers []string
	pending bool // next line carries the column names
	records []record
}

var _ ports.DataLogger = (*CR1000)(nil)

func New(portName string, baud int) *CR1000 {
	return &CR1000{portName: portName, baud: baud}
}

// Open opens the serial port and starts consuming the record stream.
func (c *CR1000) Open() error {
	port, err := serial.Open(c.portName, &serial.Mode{BaudRate: c.baud})
	if err != nil {
		return fmt.Errorf("open datalogger port %s: %w", c.portName, err)
	}
	c.mu.Lock()
	c.port = port
	c.mu.Unlock()

	go c.readLoop(port)
	log.Printf("[cr1000] reading %s at %d baud", c.portName, c.baud)
	return nil
}

func (c *CR1000) readLoop(port serial.Port) {
	scanner := bufio.NewScanner(port)
	for scanner.Scan() {
		c.ingestLine(scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		log.Printf("[cr1000] serial stream ended: %v", err)
	}
}

// ingestLine consumes one line of the TOA5 stream. The logger repeats
// the environment and header lines whenever its program restarts, so
// both can appear mid-stream.
func (c *CR1000) ingestLine(line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}
	fields, err := csv.NewReader(strings.NewReader(line)).Read()
	if err != nil || len(fields) == 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if fields[0] == "TOA5" {
		// Environment line; the table name is the last field.
		c.table = fields[len(fields)-1]
		c.pending = true
		return
	}
	if c.pending {
		c.headers = fields
		c.pending = false
		return
	}
	if len(c.headers) == 0 {
		return
	}

	ts, err := time.ParseInLocation(timestampLayout, fields[0], time.Local)
	if err != nil {
		return
	}
	rec := record{table: c.table, ts: ts, fields: make(map[string]any, len(fields))}
	for i, name := range c.headers {
		if i >= len(fields) {
			break
		}
		rec.fields[name] = parseValue(fields[i])
	}
	c.records = append(c.records, rec)
	if len(c.records) > maxRecords {
		c.records = c.records[len(c.records)-maxRecords:]
	}
}

func parseValue(s string) any {
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}

// LoggerTime returns the timestamp of the newest record, which tracks
// the station's own clock.
func (c *CR1000) LoggerTime(ctx context.Context) (time.Time, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.records) == 0 {
		return time.Time{}, ErrNoRecords
	}
	return c.records[len(c.records)-1].ts, nil
}

// Latest returns the newest record of the given table; an empty table
// name matches any.
func (c *CR1000) Latest(ctx context.Context, table string) (map[string]any, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := len(c.records) - 1; i >= 0; i-- {
		if table == "" || c.records[i].table == table {
			return copyFields(c.records[i]), nil
		}
	}
	return nil, ErrNoRecords
}

// Range returns the records of the last n minutes, oldest first.
func (c *CR1000) Range(ctx context.Context, table string, minutes int) ([]map[string]any, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.records) == 0 {
		return nil, ErrNoRecords
	}
	cutoff := c.records[len(c.records)-1].ts.Add(-time.Duration(minutes) * time.Minute)
	var out []map[string]any
	for _, r := range c.records {
		if table != "" && r.table != table {
			continue
		}
		if r.ts.Before(cutoff) {
			continue
		}
		out = append(out, copyFields(r))
	}
	return out, nil
}

func (c *CR1000) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.port == nil {
		return nil
	}
	err := c.port.Close()
	c.port = nil
	return err
}

func copyFields(r record) map[string]any {
	out := make(map[string]any, len(r.fields)+1)
	for k, v := range r.fields {
		out[k] = v
	}
	out["Datetime"] = r.ts.Format(timestampLayout)
	return out
}
