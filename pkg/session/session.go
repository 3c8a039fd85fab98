// Package session tracks a live contest activation: its status, the running
// score, the multipliers worked and the serial number counter.
package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sw33tLie/contestlog/pkg/contest"
	"github.com/sw33tLie/contestlog/pkg/logbook"
	"github.com/sw33tLie/contestlog/pkg/scoring"
	"github.com/sw33tLie/contestlog/pkg/station"
)

var (
	// ErrNoContest is returned by scoring operations when no contest is selected.
	ErrNoContest = errors.New("no contest selected")

	// ErrNoAlgorithm is returned by scoring operations when the contest's
	// algorithm id is not registered.
	ErrNoAlgorithm = errors.New("contest has no scoring algorithm")

	// ErrIncompleteStation is returned by scoring operations when the station
	// profile lacks fields the algorithms need.
	ErrIncompleteStation = errors.New("station profile incomplete")
)

// Totals is a running score. Total is always QSOPoints * Multiplier.
type Totals struct {
	QSOPoints  int
	Multiplier int
	Total      int
}

func (t *Totals) add(r scoring.Result) {
	t.QSOPoints += r.QSOPoints
	t.Multiplier += r.Multiplier
	t.Total = t.QSOPoints * t.Multiplier
}

// State is what outlives a session: restored on the next selection.
type State struct {
	ContestID  string
	Instance   string
	Active     bool
	NextSerial int
}

// Config binds a session to its collaborators.
type Config struct {
	Catalog  *contest.Catalog
	Registry *scoring.Registry
	Book     logbook.Book
	Station  station.Profile

	// Restored from the previous session.
	State State

	// Now defaults to time.Now.
	Now    func() time.Time
	Logger logrus.FieldLogger
}

// Session is one contest activation. It is not safe for concurrent use.
type Session struct {
	contestID string
	instance  string
	def       *contest.Definition
	algorithm scoring.Algorithm
	bindErr   error

	book    logbook.Book
	station station.Profile
	now     func() time.Time
	log     logrus.FieldLogger

	status     Status
	committed  Totals
	preview    Totals
	mults      scoring.MultiplierSet
	qsos       []int
	nextSerial int
}

// New selects the contest named in cfg.State. An empty contest id yields a
// session in NoContest. A contest missing from the catalog is an error; an
// unregistered algorithm or incomplete station profile is not, but every
// scoring operation then reports it.
func New(cfg Config) (*Session, error) {
	s := &Session{
		contestID:  cfg.State.ContestID,
		instance:   cfg.State.Instance,
		book:       cfg.Book,
		station:    cfg.Station,
		now:        cfg.Now,
		log:        cfg.Logger,
		mults:      scoring.MultiplierSet{},
		nextSerial: cfg.State.NextSerial,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.log == nil {
		s.log = logrus.StandardLogger()
	}
	if s.nextSerial < 1 {
		s.nextSerial = 1
	}
	if s.contestID == "" {
		s.status = NoContest
		return s, nil
	}
	if cfg.Catalog == nil {
		return nil, fmt.Errorf("select %s %s: %w", s.contestID, s.instance, contest.ErrNotFound)
	}

	def, err := cfg.Catalog.Lookup(s.contestID, s.instance)
	if err != nil {
		return nil, fmt.Errorf("select contest: %w", err)
	}
	s.def = def
	s.log = s.log.WithFields(logrus.Fields{"contest": s.contestID, "instance": s.instance})

	if cfg.Registry == nil {
		s.bindErr = fmt.Errorf("%w: no registry", ErrNoAlgorithm)
	} else if a, err := cfg.Registry.Lookup(def.AlgorithmID); err != nil {
		s.bindErr = fmt.Errorf("%w: %w", ErrNoAlgorithm, err)
	} else {
		s.algorithm = a
	}
	if err := cfg.Station.Validate(); err != nil {
		s.bindErr = errors.Join(s.bindErr, fmt.Errorf("%w: %w", ErrIncompleteStation, err))
	}
	if s.bindErr != nil {
		s.log.WithError(s.bindErr).WithField("algorithm", def.AlgorithmID).Warn("Contest scoring disabled")
	}

	s.evaluate(cfg.State.Active)
	return s, nil
}

// evaluate derives the status from the contest window. Inside the window
// wasActive picks Active over Paused.
func (s *Session) evaluate(wasActive bool) {
	now := s.now()
	tf := s.def.Timeframe
	switch {
	case now.Before(tf.Start):
		s.status = Future
	case !now.Before(tf.Finish):
		s.status = Past
	case wasActive:
		s.status = Active
	default:
		s.status = Paused
	}
	s.log.WithField("status", s.status).Debug("Contest status evaluated")
}

// Reselect re-evaluates the status against the clock, as selecting the same
// contest again would. There is no other clock-driven transition.
func (s *Session) Reselect() Status {
	if s.contestID != "" {
		s.evaluate(s.status == Active)
	}
	return s.status
}

// ToggleStatus flips Active and Paused. From Past it clears the selection.
// Other states are unchanged.
func (s *Session) ToggleStatus() Status {
	switch s.status {
	case Active:
		s.status = Paused
	case Paused:
		s.status = Active
	case Past:
		s.status = NoContest
		s.contestID = ""
		s.instance = ""
		s.def = nil
	}
	return s.status
}

// Selection and score accessors. Definition is nil without a selection;
// Preview holds the totals of the last CheckQSO.
func (s *Session) ContestID() string               { return s.contestID }
func (s *Session) Instance() string                { return s.instance }
func (s *Session) Status() Status                  { return s.status }
func (s *Session) Definition() *contest.Definition { return s.def }
func (s *Session) Committed() Totals               { return s.committed }
func (s *Session) Preview() Totals                 { return s.preview }

// Algorithm returns the bound algorithm, nil if binding failed.
func (s *Session) Algorithm() scoring.Algorithm { return s.algorithm }

// BindError reports why scoring is disabled, nil if it is not.
func (s *Session) BindError() error { return s.bindErr }

// Multipliers returns the multiplier keys worked, sorted.
func (s *Session) Multipliers() []string { return s.mults.Keys() }

// QSOs returns the log indices committed to this activation.
func (s *Session) QSOs() []int { return append([]int(nil), s.qsos...) }

// State returns what should be persisted when the session is torn down.
func (s *Session) State() State {
	return State{
		ContestID:  s.contestID,
		Instance:   s.instance,
		Active:     s.status == Active,
		NextSerial: s.nextSerial,
	}
}

func (s *Session) ready() error {
	if s.contestID == "" {
		return ErrNoContest
	}
	return s.bindErr
}

func (s *Session) score(index int) (logbook.Record, scoring.Result, error) {
	if err := s.ready(); err != nil {
		return nil, scoring.Result{}, err
	}
	rec, err := s.book.Record(index)
	if err != nil {
		return nil, scoring.Result{}, fmt.Errorf("fetch qso %d: %w", index, err)
	}
	return rec, s.algorithm.ScoreQSO(rec, s.station, s.mults), nil
}

// Claim stamps rec with the selected contest id when it counts toward this
// activation: the contest is active and the QSO time lies inside its window.
// Resume replays exactly the records Claim accepts.
func (s *Session) Claim(rec logbook.Record) bool {
	if s.status != Active || s.def == nil {
		return false
	}
	ts, err := logbook.Timestamp(rec)
	if err != nil || !s.def.Timeframe.Contains(ts) {
		return false
	}
	rec.SetItem(logbook.FieldContestID, s.contestID)
	return true
}

// AddQSO scores the record at index and commits it.
func (s *Session) AddQSO(index int) (scoring.Result, error) {
	_, r, err := s.score(index)
	if err != nil {
		return scoring.Result{}, err
	}
	s.qsos = append(s.qsos, index)
	if r.Multiplier != 0 {
		s.mults.Add(r.MultiplierKey)
	}
	s.committed.add(r)
	s.log.WithFields(logrus.Fields{
		"qso":        index,
		"points":     r.QSOPoints,
		"multiplier": r.MultiplierKey,
		"new_mult":   r.Multiplier != 0,
	}).Debug("QSO committed")
	return r, nil
}

// CheckQSO scores the record at index without committing it. Preview holds
// the committed totals plus this QSO; nothing else changes.
func (s *Session) CheckQSO(index int) (scoring.Result, error) {
	_, r, err := s.score(index)
	if err != nil {
		return scoring.Result{}, err
	}
	s.preview = s.committed
	s.preview.add(r)
	return r, nil
}

// Resume rebuilds the committed score from the log book after a restart. It
// walks back from the most recent record until one predates the contest
// start, replaying every record logged under this contest inside its window.
// It returns the number of QSOs replayed.
func (s *Session) Resume() (int, error) {
	if err := s.ready(); err != nil {
		return 0, err
	}
	s.committed = Totals{}
	s.preview = Totals{}
	s.mults = scoring.MultiplierSet{}
	s.qsos = nil

	tf := s.def.Timeframe
	replayed := 0
	for i := s.book.Len() - 1; i >= 0; i-- {
		rec, err := s.book.Record(i)
		if err != nil {
			return replayed, fmt.Errorf("resume: %w", err)
		}
		ts, err := logbook.Timestamp(rec)
		if err != nil {
			s.log.WithError(err).WithField("qso", i).Debug("Skipping QSO without timestamp")
			continue
		}
		if ts.Before(tf.Start) {
			break
		}
		if rec.Item(logbook.FieldContestID) != s.contestID || !tf.Contains(ts) {
			continue
		}
		if _, err := s.AddQSO(i); err != nil {
			return replayed, fmt.Errorf("resume: %w", err)
		}
		replayed++
	}
	s.log.WithFields(logrus.Fields{"qsos": replayed, "total": s.committed.Total}).Info("Contest score restored")
	return replayed, nil
}

// ParseExchange stores a received exchange in rec.
func (s *Session) ParseExchange(rec logbook.Record, text string) error {
	if err := s.ready(); err != nil {
		return err
	}
	return s.algorithm.ParseExchange(rec, text)
}

// GenerateExchange fills the sent exchange fields of rec, including the
// serial number for algorithms that use one, and returns the exchange text.
func (s *Session) GenerateExchange(rec logbook.Record) (string, error) {
	if err := s.ready(); err != nil {
		return "", err
	}
	if s.algorithm.UsesSerialNumber() {
		rec.SetItem(logbook.FieldSTX, s.Serial())
	}
	return s.algorithm.GenerateExchange(rec, s.station), nil
}

// UsesSerialNumber reports whether the bound algorithm exchanges serials.
func (s *Session) UsesSerialNumber() bool {
	return s.algorithm != nil && s.algorithm.UsesSerialNumber()
}

// Serial returns the next serial number, zero padded to three digits.
func (s *Session) Serial() string {
	return fmt.Sprintf("%03d", s.nextSerial)
}

// IncrementSerial advances the serial number. Call it once a QSO using the
// current serial has been committed.
func (s *Session) IncrementSerial() {
	s.nextSerial++
}
