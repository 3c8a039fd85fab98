package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sw33tLie/contestlog/internal/utils"
	"github.com/sw33tLie/contestlog/pkg/contest"
	"github.com/sw33tLie/contestlog/pkg/session"
	"github.com/sw33tLie/contestlog/pkg/station"
	"github.com/sw33tLie/contestlog/pkg/storage"
)

func resolveDBPath(cmd *cobra.Command) string {
	dbPath, _ := cmd.Flags().GetString("dbpath")
	if dbPath == "" {
		dbPath = viper.GetString("db.path")
	}
	if dbPath == "" {
		dbPath = "contestlog.sqlite"
	}
	return dbPath
}

func openDB(cmd *cobra.Command) (*storage.DB, error) {
	return storage.Open(resolveDBPath(cmd), utils.Log)
}

// withWriteLock runs fn while holding the log book lock.
func withWriteLock(cmd *cobra.Command, fn func() error) error {
	lock, err := utils.NewDBLock(resolveDBPath(cmd))
	if err != nil {
		return err
	}
	if err := lock.Lock(); err != nil {
		return err
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			utils.Log.WithError(err).Warn("Could not release log book lock")
		}
	}()
	return fn()
}

func stationProfile() station.Profile {
	return station.Profile{
		Callsign:  viper.GetString("station.callsign"),
		DXCC:      viper.GetString("station.dxcc"),
		ITUZone:   viper.GetString("station.ituz"),
		Continent: strings.ToUpper(viper.GetString("station.cont")),
	}
}

// loadCatalog never fails: a catalog that cannot be read is reported and
// treated as empty.
func loadCatalog(ctx context.Context, db *storage.DB) *contest.Catalog {
	c, err := db.LoadCatalog(ctx)
	if err != nil {
		utils.Log.WithError(err).Error("Could not load contest catalog")
		return contest.NewCatalog()
	}
	return c
}

// openSession restores the selected contest and replays its QSOs from the
// log book.
func openSession(ctx context.Context, db *storage.DB) (*session.Session, *storage.Book, error) {
	st, err := db.LoadSessionState(ctx)
	if err != nil {
		return nil, nil, err
	}
	book, err := db.LoadBook(ctx)
	if err != nil {
		return nil, nil, err
	}
	s, err := session.New(session.Config{
		Catalog:  loadCatalog(ctx, db),
		Registry: registry,
		Book:     book,
		Station:  stationProfile(),
		State:    st,
		Logger:   utils.Log,
	})
	if err != nil {
		return nil, nil, err
	}
	if s.ContestID() != "" && s.BindError() == nil {
		if _, err := s.Resume(); err != nil {
			return nil, nil, err
		}
	}
	return s, book, nil
}

func closeSession(ctx context.Context, db *storage.DB, s *session.Session) error {
	if err := db.SaveSessionState(ctx, s.State()); err != nil {
		return fmt.Errorf("save session state: %w", err)
	}
	return nil
}

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// parseUTC accepts RFC3339 or a bare date/time, which is taken as UTC.
func parseUTC(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse time %q (use RFC3339 or YYYY-MM-DD HH:MM)", s)
}
