package session

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sw33tLie/contestlog/pkg/logbook"
	"github.com/sw33tLie/contestlog/pkg/scoring"
	"github.com/sw33tLie/contestlog/pkg/station"
)

func basicLog() *logbook.Memory {
	return bookOf(
		qsoSpec{offset: 1 * time.Hour, contest: testContest, dxcc: "230", band: "20m"},
		qsoSpec{offset: 2 * time.Hour, contest: testContest, dxcc: "230", band: "20m"},
		qsoSpec{offset: 3 * time.Hour, contest: testContest, dxcc: "223", band: "20m"},
		qsoSpec{offset: 4 * time.Hour, contest: testContest, dxcc: "230", band: "40m"},
		qsoSpec{offset: 5 * time.Hour, contest: testContest, dxcc: "291", band: "40m"},
	)
}

func TestAddQSOInvariants(t *testing.T) {
	book := basicLog()
	s := newSession(t, book, sessionOpts{})

	for i := 0; i < book.Len(); i++ {
		_, err := s.AddQSO(i)
		require.NoError(t, err)

		c := s.Committed()
		assert.Equal(t, len(s.Multipliers()), c.Multiplier, "after qso %d", i)
		assert.Equal(t, c.QSOPoints*c.Multiplier, c.Total, "after qso %d", i)
	}

	assert.Equal(t, Totals{QSOPoints: 4, Multiplier: 4, Total: 16}, s.Committed())
	assert.Equal(t, []string{"223 20m", "230 20m", "230 40m", "291 40m"}, s.Multipliers())
	assert.Equal(t, []int{0, 1, 2, 3, 4}, s.QSOs())
}

func TestAddQSOSharedMultiplierCountsOnce(t *testing.T) {
	book := bookOf(
		qsoSpec{offset: time.Hour, contest: testContest, dxcc: "230", band: "20m"},
		qsoSpec{offset: 2 * time.Hour, contest: testContest, dxcc: "230", band: "20m"},
	)
	s := newSession(t, book, sessionOpts{})

	first, err := s.AddQSO(0)
	require.NoError(t, err)
	second, err := s.AddQSO(1)
	require.NoError(t, err)

	assert.Equal(t, 1, first.Multiplier+second.Multiplier)
	assert.Equal(t, Totals{QSOPoints: 2, Multiplier: 1, Total: 2}, s.Committed())
}

func TestCheckQSOIsSideEffectFree(t *testing.T) {
	book := basicLog()
	checked := newSession(t, book, sessionOpts{})
	plain := newSession(t, book, sessionOpts{})

	_, err := checked.AddQSO(0)
	require.NoError(t, err)
	_, err = plain.AddQSO(0)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		r, err := checked.CheckQSO(3)
		require.NoError(t, err)
		assert.Equal(t, 1, r.Multiplier)
	}
	assert.Equal(t, Totals{QSOPoints: 2, Multiplier: 2, Total: 4}, checked.Preview())
	assert.Equal(t, Totals{QSOPoints: 1, Multiplier: 1, Total: 1}, checked.Committed())

	_, err = checked.AddQSO(3)
	require.NoError(t, err)
	_, err = plain.AddQSO(3)
	require.NoError(t, err)

	assert.Equal(t, plain.Committed(), checked.Committed())
	assert.Equal(t, plain.Multipliers(), checked.Multipliers())
	assert.Equal(t, plain.QSOs(), checked.QSOs())
}

func TestCheckQSODoesNotConsumeNewMultiplier(t *testing.T) {
	s := newSession(t, basicLog(), sessionOpts{})
	_, err := s.CheckQSO(0)
	require.NoError(t, err)
	assert.Empty(t, s.Multipliers())

	r, err := s.AddQSO(0)
	require.NoError(t, err)
	assert.Equal(t, 1, r.Multiplier)
}

func TestUnknownAlgorithmLeavesTotalsAtZero(t *testing.T) {
	s := newSession(t, basicLog(), sessionOpts{algorithm: "Nonexistent"})

	assert.Nil(t, s.Algorithm())
	assert.True(t, errors.Is(s.BindError(), ErrNoAlgorithm))
	assert.True(t, errors.Is(s.BindError(), scoring.ErrUnknownAlgorithm))

	assert.NotPanics(t, func() {
		_, err := s.AddQSO(0)
		assert.True(t, errors.Is(err, ErrNoAlgorithm))
		_, err = s.CheckQSO(1)
		assert.True(t, errors.Is(err, ErrNoAlgorithm))
	})
	assert.Equal(t, Totals{}, s.Committed())
	assert.Equal(t, Totals{}, s.Preview())
	assert.Empty(t, s.QSOs())
	assert.False(t, s.UsesSerialNumber())
}

func TestIncompleteStationDisablesScoring(t *testing.T) {
	s := newSession(t, basicLog(), sessionOpts{station: station.Profile{Callsign: "G4ABC", DXCC: "223"}})
	require.NotNil(t, s.Algorithm())

	_, err := s.AddQSO(0)
	assert.True(t, errors.Is(err, ErrIncompleteStation))
	assert.True(t, errors.Is(err, station.ErrIncomplete))
	assert.Equal(t, Totals{}, s.Committed())
}

func TestAddQSOOutOfRange(t *testing.T) {
	s := newSession(t, basicLog(), sessionOpts{})
	_, err := s.AddQSO(99)
	assert.True(t, errors.Is(err, logbook.ErrOutOfRange))
	assert.Empty(t, s.QSOs())
}

func TestIaruHfOwnZoneBeatsOtherContinent(t *testing.T) {
	book := bookOf(qsoSpec{offset: time.Hour, contest: testContest, ituz: "27", cont: "AF", band: "20m"})
	s := newSession(t, book, sessionOpts{algorithm: scoring.IaruHfID})

	r, err := s.AddQSO(0)
	require.NoError(t, err)
	assert.Equal(t, 1, r.QSOPoints)
	assert.Equal(t, Totals{QSOPoints: 1, Multiplier: 1, Total: 1}, s.Committed())
}

func TestSerial(t *testing.T) {
	s := newSession(t, basicLog(), sessionOpts{serial: 9})
	assert.Equal(t, "009", s.Serial())
	s.IncrementSerial()
	assert.Equal(t, "010", s.Serial())
	assert.Equal(t, 10, s.State().NextSerial)

	fresh := newSession(t, basicLog(), sessionOpts{})
	assert.Equal(t, "001", fresh.Serial())
}

func TestExchangeDelegation(t *testing.T) {
	s := newSession(t, basicLog(), sessionOpts{serial: 42})
	require.True(t, s.UsesSerialNumber())

	rec := logbook.Fields{}
	rec.SetItem(logbook.FieldMode, "CW")
	sent, err := s.GenerateExchange(rec)
	require.NoError(t, err)
	assert.Equal(t, "599 042", sent)
	assert.Equal(t, "042", rec.Item(logbook.FieldSTX))
	assert.Equal(t, "223", rec.Item(logbook.FieldMyDXCC))

	require.NoError(t, s.ParseExchange(rec, "579 017"))
	assert.Equal(t, "579", rec.Item(logbook.FieldRSTRcvd))
	assert.Equal(t, "017", rec.Item(logbook.FieldSRX))

	var perr *scoring.ParseError
	assert.True(t, errors.As(s.ParseExchange(rec, ""), &perr))

	iaru := newSession(t, basicLog(), sessionOpts{algorithm: scoring.IaruHfID, serial: 42})
	rec = logbook.Fields{}
	rec.SetItem(logbook.FieldMode, "SSB")
	sent, err = iaru.GenerateExchange(rec)
	require.NoError(t, err)
	assert.Equal(t, "59 27", sent)
	assert.Equal(t, "", rec.Item(logbook.FieldSTX))
}
