package storage

import (
	"os"

	"go.uber.org/zap"

	"github.com/hpungsan/octidy/internal/config"
	"github.com/hpungsan/octidy/internal/errors"
)

// RemoveFunc removes path and everything beneath it. It must return nil when
// path does not exist, like os.RemoveAll.
type RemoveFunc func(path string) error

// Store is the handle the aggregator and the deleter work against: the
// physical layout plus the one removal primitive used for every deletion.
type Store struct {
	Layout
	remove RemoveFunc
	log    *zap.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for deletion diagnostics.
func WithLogger(log *zap.Logger) Option {
	return func(s *Store) {
		if log != nil {
			s.log = log
		}
	}
}

// WithRemoveFunc replaces os.RemoveAll as the underlying removal call.
func WithRemoveFunc(fn RemoveFunc) Option {
	return func(s *Store) {
		if fn != nil {
			s.remove = fn
		}
	}
}

// NewStore returns a Store over the given roots.
func NewStore(paths config.Paths, opts ...Option) *Store {
	s := &Store{
		Layout: NewLayout(paths),
		remove: os.RemoveAll,
		log:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Logger returns the store's logger.
func (s *Store) Logger() *zap.Logger { return s.log }

// Remove deletes path (recursively for directories) on a best-effort basis.
// An absent target is success: existed is false and err is nil. Any other
// failure is returned as an IO_FAILURE error.
func (s *Store) Remove(path string) (existed bool, err error) {
	if _, statErr := os.Lstat(path); statErr != nil {
		if os.IsNotExist(statErr) {
			return false, nil
		}
		return false, errors.NewIOFailure("stat", path, statErr)
	}
	if err := s.remove(path); err != nil && !os.IsNotExist(err) {
		s.log.Warn("remove failed", zap.String("path", path), zap.Error(err))
		return true, errors.NewIOFailure("remove", path, err)
	}
	s.log.Debug("removed", zap.String("path", path))
	return true, nil
}
