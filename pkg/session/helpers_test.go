package session

import (
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/sw33tLie/contestlog/pkg/contest"
	"github.com/sw33tLie/contestlog/pkg/logbook"
	"github.com/sw33tLie/contestlog/pkg/scoring"
	"github.com/sw33tLie/contestlog/pkg/station"
)

var (
	windowStart  = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	windowFinish = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	home         = station.Profile{Callsign: "G4ABC", DXCC: "223", ITUZone: "27", Continent: "EU"}
)

const testContest = "TEST"

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func testCatalog(algorithmID string) *contest.Catalog {
	c := contest.NewCatalog()
	def, _ := c.Get(testContest, "1", true)
	def.AlgorithmID = algorithmID
	def.Timeframe = contest.Timeframe{Start: windowStart, Finish: windowFinish}
	return c
}

func at(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

type qsoSpec struct {
	offset  time.Duration
	contest string
	dxcc    string
	ituz    string
	cont    string
	band    string
}

func record(q qsoSpec) logbook.Fields {
	f := logbook.Fields{}
	logbook.SetTimestamp(f, windowStart.Add(q.offset))
	f.SetItem(logbook.FieldContestID, q.contest)
	f.SetItem(logbook.FieldDXCC, q.dxcc)
	f.SetItem(logbook.FieldITUZ, q.ituz)
	f.SetItem(logbook.FieldCont, q.cont)
	f.SetItem(logbook.FieldBand, q.band)
	return f
}

func bookOf(qs ...qsoSpec) *logbook.Memory {
	m := logbook.NewMemory()
	for _, q := range qs {
		m.Append(record(q))
	}
	return m
}

type sessionOpts struct {
	algorithm string
	now       time.Time
	active    bool
	serial    int
	station   station.Profile
}

func newSession(t *testing.T, book logbook.Book, o sessionOpts) *Session {
	t.Helper()
	if o.algorithm == "" {
		o.algorithm = scoring.BasicID
	}
	if o.now.IsZero() {
		o.now = windowStart.Add(time.Hour)
	}
	if o.station == (station.Profile{}) {
		o.station = home
	}
	s, err := New(Config{
		Catalog:  testCatalog(o.algorithm),
		Registry: scoring.NewDefaultRegistry(),
		Book:     book,
		Station:  o.station,
		State:    State{ContestID: testContest, Instance: "1", Active: o.active, NextSerial: o.serial},
		Now:      at(o.now),
		Logger:   quietLogger(),
	})
	require.NoError(t, err)
	return s
}
