package movies

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"cineflix/proj/internal/domain/fields"
	"cineflix/proj/internal/domain/filters"
	"cineflix/proj/internal/domain/models"
	"cineflix/proj/internal/repositories"
	"cineflix/proj/internal/services/catalog"
	"cineflix/proj/internal/storage"

	"github.com/gabriel-vasile/mimetype"
)

type MoviesStorage interface {
	FindAll(ctx context.Context) ([]models.Movie, error)
	FindByID(ctx context.Context, id int64) (models.Movie, error)
	Insert(ctx context.Context, movie models.Movie) (models.Movie, error)
	Update(ctx context.Context, id int64, patch repositories.MoviePatch) (models.Movie, error)
	DeleteByID(ctx context.Context, id int64) error
	DeleteMany(ctx context.Context, ids []int64) (int, error)
}

// AssetStorage uploads a file and returns the URL it can be played from.
type AssetStorage interface {
	Save(ctx context.Context, name string, r io.Reader) (string, error)
}

type MovieService struct {
	log            *slog.Logger
	storage        MoviesStorage
	assets         AssetStorage
	maxUploadBytes int64
	now            func() time.Time
}

func New(log *slog.Logger, storage MoviesStorage, assets AssetStorage, maxUploadBytes int64) *MovieService {
	return &MovieService{
		log:            log,
		storage:        storage,
		assets:         assets,
		maxUploadBytes: maxUploadBytes,
		now:            time.Now,
	}
}

func (s *MovieService) Get(ctx context.Context, id int64) (models.Movie, error) {
	const op = "movies.MovieService.Get"
	log := s.log.With("op", op, "id", id)
	movie, err := s.storage.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			log.Info("movie not found")
			return models.Movie{}, ErrMovieNotFound
		}
		log.Error(err.Error())
		return models.Movie{}, err
	}
	return movie, nil
}

// List returns the catalog view for f. The zero Filters returns every movie
// in stored order.
func (s *MovieService) List(ctx context.Context, f filters.Filters) ([]models.Movie, error) {
	const op = "movies.MovieService.List"
	movies, err := s.storage.FindAll(ctx)
	if err != nil {
		s.log.Error(err.Error(), "op", op)
		return nil, err
	}
	return catalog.Apply(movies, f), nil
}

// Search is the admin panel lookup by title or genre.
func (s *MovieService) Search(ctx context.Context, query string) ([]models.Movie, error) {
	movies, err := s.storage.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	return catalog.Search(movies, query), nil
}

func (s *MovieService) Featured(ctx context.Context) ([]models.Movie, error) {
	movies, err := s.storage.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	return catalog.Featured(movies, catalog.FeaturedCount), nil
}

func (s *MovieService) Related(ctx context.Context, id int64) ([]models.Movie, error) {
	movie, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	movies, err := s.storage.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	return catalog.Related(movies, movie), nil
}

type CreateMovieInput struct {
	Title     string
	Synopsis  string
	Year      int
	Genre     fields.Genre
	Rating    float64
	PosterURL string
	VideoURL  string
}

func (s *MovieService) Create(ctx context.Context, in CreateMovieInput) (models.Movie, error) {
	const op = "movies.MovieService.Create"
	log := s.log.With("op", op, "title", in.Title, "year", in.Year, "genre", in.Genre)
	poster := strings.TrimSpace(in.PosterURL)
	if poster == "" {
		poster = repositories.PosterPlaceholder(in.Title)
	}
	video := strings.TrimSpace(in.VideoURL)
	if video == "" {
		video = repositories.DefaultVideoURL
	}
	uploaded := s.now().UTC()
	movie, err := s.storage.Insert(ctx, models.Movie{
		Title:      in.Title,
		Synopsis:   in.Synopsis,
		Year:       in.Year,
		Genre:      in.Genre,
		PosterURL:  poster,
		VideoURL:   video,
		Rating:     fields.NewRating(in.Rating),
		UploadedAt: &uploaded,
	})
	if err != nil {
		log.Error(err.Error())
		return models.Movie{}, err
	}
	log.Info("movie created", "id", movie.ID)
	return movie, nil
}

// Update merges patch into the movie. An empty poster URL keeps the current
// poster.
func (s *MovieService) Update(ctx context.Context, id int64, patch repositories.MoviePatch) (models.Movie, error) {
	const op = "movies.MovieService.Update"
	log := s.log.With("op", op, "id", id)
	if patch.PosterURL != nil && strings.TrimSpace(*patch.PosterURL) == "" {
		patch.PosterURL = nil
	}
	movie, err := s.storage.Update(ctx, id, patch)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			log.Info("movie not found")
			return models.Movie{}, ErrMovieNotFound
		}
		log.Error("Error updating movie: " + err.Error())
		return models.Movie{}, err
	}
	return movie, nil
}

func (s *MovieService) Delete(ctx context.Context, id int64) error {
	const op = "movies.MovieService.Delete"
	log := s.log.With("op", op, "id", id)
	if err := s.storage.DeleteByID(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			log.Info("movie not found")
			return ErrMovieNotFound
		}
		log.Error(err.Error())
		return err
	}
	return nil
}

// DeleteMany removes the listed movies and reports how many existed.
func (s *MovieService) DeleteMany(ctx context.Context, ids []int64) (int, error) {
	const op = "movies.MovieService.DeleteMany"
	n, err := s.storage.DeleteMany(ctx, ids)
	if err != nil {
		s.log.Error(err.Error(), "op", op)
		return 0, err
	}
	s.log.Info("movies deleted", "op", op, "requested", len(ids), "deleted", n)
	return n, nil
}

const sniffLen = 3072

// AttachVideo uploads r as the movie's video and points url_video at it.
// size is the declared upload size; the content itself must look like a video.
func (s *MovieService) AttachVideo(ctx context.Context, id int64, filename string, size int64, r io.Reader) (models.Movie, error) {
	const op = "movies.MovieService.AttachVideo"
	log := s.log.With("op", op, "id", id, "filename", filename, "size", size)
	if s.assets == nil {
		return models.Movie{}, ErrAssetsDisabled
	}
	if s.maxUploadBytes > 0 && size > s.maxUploadBytes {
		log.Info("upload too large")
		return models.Movie{}, ErrVideoTooLarge
	}
	if _, err := s.Get(ctx, id); err != nil {
		return models.Movie{}, err
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return models.Movie{}, fmt.Errorf("%s: read upload: %w", op, err)
	}
	head = head[:n]
	mime := mimetype.Detect(head)
	if !strings.HasPrefix(mime.String(), "video/") {
		log.Info("rejected upload", "mime", mime.String())
		return models.Movie{}, ErrInvalidVideo
	}

	name := fmt.Sprintf("videos/%d-%d%s", id, s.now().UnixMilli(), mime.Extension())
	if ext := path.Ext(filename); ext != "" && mime.Extension() == "" {
		name += ext
	}
	location, err := s.assets.Save(ctx, name, io.MultiReader(bytes.NewReader(head), r))
	if err != nil {
		log.Error("Error uploading video", "errMsg", err.Error())
		return models.Movie{}, err
	}
	return s.Update(ctx, id, repositories.MoviePatch{VideoURL: &location})
}
