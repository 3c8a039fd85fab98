package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sw33tLie/contestlog/pkg/logbook"
	"github.com/sw33tLie/contestlog/pkg/scoring"
)

func mixedLog() *logbook.Memory {
	return bookOf(
		qsoSpec{offset: -48 * time.Hour, contest: testContest, ituz: "8", cont: "NA", band: "20m"},
		qsoSpec{offset: -time.Hour, contest: "OTHER", ituz: "8", cont: "NA", band: "20m"},
		qsoSpec{offset: 0, contest: testContest, ituz: "27", cont: "EU", band: "20m"},
		qsoSpec{offset: time.Hour, contest: testContest, ituz: "8", cont: "NA", band: "20m"},
		qsoSpec{offset: 2 * time.Hour, contest: "OTHER", ituz: "28", cont: "EU", band: "20m"},
		qsoSpec{offset: 3 * time.Hour, contest: testContest, ituz: "28", cont: "EU", band: "20m"},
		qsoSpec{offset: 4 * time.Hour, contest: testContest, ituz: "8", cont: "NA", band: "40m"},
		qsoSpec{offset: 5 * time.Hour, contest: testContest, ituz: "RSGB", cont: "EU", band: "40m"},
		qsoSpec{offset: 26 * time.Hour, contest: testContest, ituz: "8", cont: "NA", band: "15m"},
	)
}

func TestResumeMatchesLiveSession(t *testing.T) {
	book := mixedLog()
	opts := sessionOpts{algorithm: scoring.IaruHfID, now: windowStart.Add(6 * time.Hour)}

	live := newSession(t, book, opts)
	for _, i := range []int{2, 3, 5, 6, 7} {
		_, err := live.AddQSO(i)
		require.NoError(t, err)
	}

	resumed := newSession(t, book, opts)
	n, err := resumed.Resume()
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	assert.Equal(t, live.Committed(), resumed.Committed())
	assert.Equal(t, live.Multipliers(), resumed.Multipliers())
	assert.ElementsMatch(t, live.QSOs(), resumed.QSOs())
	assert.Equal(t, []int{7, 6, 5, 3, 2}, resumed.QSOs(), "replay walks back from the newest record")

	// 1 + 5 + 3 + 5 + 1 points, five zone/band multipliers.
	assert.Equal(t, Totals{QSOPoints: 15, Multiplier: 5, Total: 75}, resumed.Committed())
}

func TestResumeIsRepeatable(t *testing.T) {
	s := newSession(t, mixedLog(), sessionOpts{algorithm: scoring.IaruHfID})
	_, err := s.Resume()
	require.NoError(t, err)
	first := s.Committed()

	_, err = s.Resume()
	require.NoError(t, err)
	assert.Equal(t, first, s.Committed())
}

func TestResumeStopsAtContestStart(t *testing.T) {
	book := bookOf(
		qsoSpec{offset: 2 * time.Hour, contest: testContest, dxcc: "230", band: "20m"},
		qsoSpec{offset: -time.Hour, contest: "OTHER", dxcc: "230", band: "20m"},
		qsoSpec{offset: 3 * time.Hour, contest: testContest, dxcc: "291", band: "20m"},
	)
	s := newSession(t, book, sessionOpts{})
	n, err := s.Resume()
	require.NoError(t, err)
	assert.Equal(t, 1, n, "records before an older-than-start record are not visited")
	assert.Equal(t, []int{2}, s.QSOs())
}

func TestResumeSkipsUntimedRecords(t *testing.T) {
	book := bookOf(qsoSpec{offset: time.Hour, contest: testContest, dxcc: "230", band: "20m"})
	book.Append(logbook.Fields{logbook.FieldContestID: testContest})

	s := newSession(t, book, sessionOpts{})
	n, err := s.Resume()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestClaimAgreesWithResume(t *testing.T) {
	book := logbook.NewMemory()
	live := newSession(t, book, sessionOpts{active: true})

	var claimed []bool
	for _, offset := range []time.Duration{-48 * time.Hour, 0, 2 * time.Hour, 24 * time.Hour, 30 * time.Hour} {
		rec := record(qsoSpec{offset: offset, dxcc: "291", band: "20m"})
		ok := live.Claim(rec)
		claimed = append(claimed, ok)
		i := book.Append(rec)
		if ok {
			_, err := live.AddQSO(i)
			require.NoError(t, err)
		}
	}
	assert.Equal(t, []bool{false, true, true, false, false}, claimed)

	first, err := book.Record(0)
	require.NoError(t, err)
	assert.Empty(t, first.Item(logbook.FieldContestID))

	resumed := newSession(t, book, sessionOpts{active: true})
	n, err := resumed.Resume()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, live.Committed(), resumed.Committed())
}

func TestClaimRequiresActive(t *testing.T) {
	s := newSession(t, logbook.NewMemory(), sessionOpts{active: false})
	require.Equal(t, Paused, s.Status())

	rec := record(qsoSpec{offset: time.Hour, dxcc: "291", band: "20m"})
	assert.False(t, s.Claim(rec))
	assert.Empty(t, rec.Item(logbook.FieldContestID))

	untimed := logbook.Fields{}
	s.ToggleStatus()
	assert.False(t, s.Claim(untimed))
}
