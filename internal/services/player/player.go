package player

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"cineflix/proj/internal/domain/models"
	"cineflix/proj/internal/services/movies"
	"cineflix/proj/internal/storage"
)

var ErrInvalidPosition = errors.New("position and duration must not be negative")

type ProgressStorage interface {
	All(ctx context.Context) (map[string]models.Progress, error)
	Get(ctx context.Context, key string) (models.Progress, bool, error)
	Put(ctx context.Context, key string, p models.Progress) error
	Remove(ctx context.Context, keys ...string) error
}

type MoviesStorage interface {
	FindAll(ctx context.Context) ([]models.Movie, error)
	FindByID(ctx context.Context, id int64) (models.Movie, error)
}

type Options struct {
	// Positions at or below ResumeThreshold start from the beginning.
	ResumeThreshold time.Duration
	SaveInterval    time.Duration
	// PerUserProgress keys entries by "userID:movieID" instead of movie id.
	PerUserProgress bool
}

// PositionSource reports where playback currently is, in seconds.
type PositionSource func() (position, duration float64)

type PlayerService struct {
	log      *slog.Logger
	progress ProgressStorage
	movies   MoviesStorage
	opts     Options
	now      func() time.Time
}

func New(log *slog.Logger, progress ProgressStorage, movies MoviesStorage, opts Options) *PlayerService {
	return &PlayerService{
		log:      log,
		progress: progress,
		movies:   movies,
		opts:     opts,
		now:      time.Now,
	}
}

func (s *PlayerService) key(userID, movieID int64) string {
	id := strconv.FormatInt(movieID, 10)
	if s.opts.PerUserProgress {
		return strconv.FormatInt(userID, 10) + ":" + id
	}
	return id
}

// movieIDFromKey returns the movie id of a key owned by userID.
func (s *PlayerService) movieIDFromKey(userID int64, key string) (int64, bool) {
	if s.opts.PerUserProgress {
		prefix := strconv.FormatInt(userID, 10) + ":"
		if !strings.HasPrefix(key, prefix) {
			return 0, false
		}
		key = strings.TrimPrefix(key, prefix)
	} else if strings.Contains(key, ":") {
		return 0, false
	}
	id, err := strconv.ParseInt(key, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

func (s *PlayerService) ensureMovie(ctx context.Context, movieID int64) error {
	if _, err := s.movies.FindByID(ctx, movieID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return movies.ErrMovieNotFound
		}
		return err
	}
	return nil
}

// Save records the playback position right away, replacing any earlier entry.
// A position past a known duration is stored as the duration; a zero
// duration means not known yet and leaves the position as given.
func (s *PlayerService) Save(ctx context.Context, userID, movieID int64, position, duration float64) error {
	const op = "player.PlayerService.Save"
	log := s.log.With("op", op, "user_id", userID, "movie_id", movieID)
	if position < 0 || duration < 0 {
		return ErrInvalidPosition
	}
	if duration > 0 && position > duration {
		position = duration
	}
	if err := s.ensureMovie(ctx, movieID); err != nil {
		return err
	}
	err := s.progress.Put(ctx, s.key(userID, movieID), models.Progress{
		CurrentTime: position,
		Duration:    duration,
		Timestamp:   s.now().UnixMilli(),
	})
	if err != nil {
		log.Error("Error saving progress", "errMsg", err.Error())
		return err
	}
	return nil
}

// Resume returns the position to continue from. Nothing is returned when
// the saved position is within the resume threshold.
func (s *PlayerService) Resume(ctx context.Context, userID, movieID int64) (float64, bool, error) {
	p, ok, err := s.progress.Get(ctx, s.key(userID, movieID))
	if err != nil || !ok {
		return 0, false, err
	}
	if !s.resumable(p) {
		return 0, false, nil
	}
	return p.CurrentTime, true, nil
}

func (s *PlayerService) resumable(p models.Progress) bool {
	return p.CurrentTime > s.opts.ResumeThreshold.Seconds()
}

// Forget drops the saved position.
func (s *PlayerService) Forget(ctx context.Context, userID, movieID int64) error {
	return s.progress.Remove(ctx, s.key(userID, movieID))
}

// Autosave checkpoints source every interval until ctx is done, then
// saves once more. A zero interval uses the configured one.
func (s *PlayerService) Autosave(ctx context.Context, userID, movieID int64, interval time.Duration, source PositionSource) error {
	const op = "player.PlayerService.Autosave"
	log := s.log.With("op", op, "user_id", userID, "movie_id", movieID)
	if interval <= 0 {
		interval = s.opts.SaveInterval
	}
	if interval <= 0 {
		interval = 10 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			position, duration := source()
			return s.Save(context.WithoutCancel(ctx), userID, movieID, position, duration)
		case <-ticker.C:
			position, duration := source()
			if err := s.Save(ctx, userID, movieID, position, duration); err != nil {
				if errors.Is(err, movies.ErrMovieNotFound) {
					return err
				}
				log.Warn("checkpoint failed", "errMsg", err.Error())
			}
		}
	}
}

type Entry struct {
	Movie    models.Movie    `json:"movie"`
	Progress models.Progress `json:"progress"`
}

// ContinueWatching lists the movies userID can resume, most recently
// watched first. Entries of deleted movies are skipped.
func (s *PlayerService) ContinueWatching(ctx context.Context, userID int64) ([]Entry, error) {
	const op = "player.PlayerService.ContinueWatching"
	log := s.log.With("op", op, "user_id", userID)
	all, err := s.progress.All(ctx)
	if err != nil {
		log.Error("Error loading progress", "errMsg", err.Error())
		return nil, err
	}
	catalog, err := s.movies.FindAll(ctx)
	if err != nil {
		log.Error("Error loading movies", "errMsg", err.Error())
		return nil, err
	}
	byID := make(map[int64]models.Movie, len(catalog))
	for _, m := range catalog {
		byID[m.ID] = m
	}
	entries := []Entry{}
	for key, p := range all {
		movieID, ok := s.movieIDFromKey(userID, key)
		if !ok || !s.resumable(p) {
			continue
		}
		movie, ok := byID[movieID]
		if !ok {
			continue
		}
		entries = append(entries, Entry{Movie: movie, Progress: p})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Progress.Timestamp != entries[j].Progress.Timestamp {
			return entries[i].Progress.Timestamp > entries[j].Progress.Timestamp
		}
		return entries[i].Movie.ID < entries[j].Movie.ID
	})
	return entries, nil
}
