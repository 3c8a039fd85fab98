package utils

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// DBLock serializes writers of one log book across contestlog processes. The
// lock file sits next to the database.
type DBLock struct {
	lock *flock.Flock
	path string
}

// NewDBLock returns the lock guarding the log book at dbPath.
func NewDBLock(dbPath string) (*DBLock, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("no log book path to lock")
	}
	abs, err := filepath.Abs(dbPath)
	if err != nil {
		return nil, fmt.Errorf("resolve log book path: %w", err)
	}
	path := abs + ".lock"
	return &DBLock{lock: flock.New(path), path: path}, nil
}

// Lock takes the lock, blocking while another process holds it.
func (l *DBLock) Lock() error {
	ok, err := l.lock.TryLock()
	if err != nil {
		return fmt.Errorf("lock %s: %w", l.path, err)
	}
	if ok {
		return nil
	}
	Log.WithField("lock", l.path).Warn("Log book is busy in another contestlog process, waiting")
	if err := l.lock.Lock(); err != nil {
		return fmt.Errorf("lock %s: %w", l.path, err)
	}
	return nil
}

func (l *DBLock) Unlock() error {
	err := l.lock.Unlock()
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("unlock %s: %w", l.path, err)
	}
	return nil
}
