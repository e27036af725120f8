package datalogger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const toa5Env = `"TOA5","EGS_WX","CR1000","12345","CR1000.Std.32","wx.cr1","1234","Tbl_1min"`
const toa5Header = `"TIMESTAMP","RECORD","Temp_C","WS_ms_Avg","WindDir"`

func feed(c *CR1000, lines ...string) {
	for _, l := range lines {
		c.ingestLine(l)
	}
}

func TestIngestAndLatest(t *testing.T) {
	c := New("/dev/null", 115200)
	feed(c,
		toa5Env,
		toa5Header,
		`"2025-06-01 12:00:00",101,21.5,3.2,180`,
		`"2025-06-01 12:01:00",102,21.7,3.4,185`,
	)

	rec, err := c.Latest(context.Background(), "Tbl_1min")
	require.NoError(t, err)
	assert.Equal(t, 21.7, rec["Temp_C"])
	assert.Equal(t, 3.4, rec["WS_ms_Avg"])
	assert.Equal(t, 185.0, rec["WindDir"])
	assert.Equal(t, "2025-06-01 12:01:00", rec["Datetime"])

	ts, err := c.LoggerTime(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2025-06-01 12:01:00", ts.Format(timestampLayout))
}

func TestLatestFiltersTable(t *testing.T) {
	c := New("/dev/null", 115200)
	feed(c, toa5Env, toa5Header, `"2025-06-01 12:00:00",1,20.0,1.0,90`)

	_, err := c.Latest(context.Background(), "Tbl_other")
	assert.ErrorIs(t, err, ErrNoRecords)

	rec, err := c.Latest(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, 20.0, rec["Temp_C"])
}

func TestRange(t *testing.T) {
	c := New("/dev/null", 115200)
	feed(c, toa5Env, toa5Header,
		`"2025-06-01 12:00:00",1,20.0,1.0,90`,
		`"2025-06-01 12:05:00",2,20.5,1.1,91`,
		`"2025-06-01 12:10:00",3,21.0,1.2,92`,
	)

	recs, err := c.Range(context.Background(), "Tbl_1min", 5)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, 20.5, recs[0]["Temp_C"])
	assert.Equal(t, 21.0, recs[1]["Temp_C"])
}

func TestIngestIgnoresGarbage(t *testing.T) {
	c := New("/dev/null", 115200)
	feed(c,
		"",
		`not,a,timestamp,row`,
		toa5Env,
		toa5Header,
		`"garbled`,
		`"2025-06-01 12:00:00",1,20.0,1.0,90`,
	)

	rec, err := c.Latest(context.Background(), "Tbl_1min")
	require.NoError(t, err)
	assert.Equal(t, 20.0, rec["Temp_C"])
}

func TestHeaderRepeatsMidStream(t *testing.T) {
	c := New("/dev/null", 115200)
	feed(c, toa5Env, toa5Header,
		`"2025-06-01 12:00:00",1,20.0,1.0,90`,
		// Logger program restart re-emits the preamble.
		toa5Env, toa5Header,
		`"2025-06-01 12:01:00",2,20.1,1.0,91`,
	)

	recs, err := c.Range(context.Background(), "Tbl_1min", 10)
	require.NoError(t, err)
	assert.Len(t, recs, 2)
}
