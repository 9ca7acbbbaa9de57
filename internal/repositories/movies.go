package repositories

import (
	"context"
	"log/slog"

	"cineflix/proj/internal/domain/fields"
	"cineflix/proj/internal/domain/models"
	"cineflix/proj/internal/storage"
)

type MoviePatch struct {
	Title     *string
	Synopsis  *string
	Year      *int
	Genre     *fields.Genre
	PosterURL *string
	VideoURL  *string
	Rating    *fields.Rating
}

func (p MoviePatch) Apply(m *models.Movie) {
	if p.Title != nil {
		m.Title = *p.Title
	}
	if p.Synopsis != nil {
		m.Synopsis = *p.Synopsis
	}
	if p.Year != nil {
		m.Year = *p.Year
	}
	if p.Genre != nil {
		m.Genre = *p.Genre
	}
	if p.PosterURL != nil {
		m.PosterURL = *p.PosterURL
	}
	if p.VideoURL != nil {
		m.VideoURL = *p.VideoURL
	}
	if p.Rating != nil {
		m.Rating = *p.Rating
	}
}

type MovieRepository struct {
	movies *Collection[models.Movie, *models.Movie]
}

func NewMovieRepository(log *slog.Logger, store storage.Store, ids *IDGenerator, retries int) *MovieRepository {
	return &MovieRepository{
		movies: NewCollection[models.Movie](log, store, storage.KeyMovies, ids, retries),
	}
}

func (r *MovieRepository) FindAll(ctx context.Context) ([]models.Movie, error) {
	return r.movies.FindAll(ctx)
}

func (r *MovieRepository) FindByID(ctx context.Context, id int64) (models.Movie, error) {
	return r.movies.FindByID(ctx, id)
}

func (r *MovieRepository) Insert(ctx context.Context, movie models.Movie) (models.Movie, error) {
	return r.movies.Insert(ctx, movie)
}

func (r *MovieRepository) Update(ctx context.Context, id int64, patch MoviePatch) (models.Movie, error) {
	return r.movies.Update(ctx, id, patch.Apply)
}

func (r *MovieRepository) DeleteByID(ctx context.Context, id int64) error {
	return r.movies.DeleteByID(ctx, id)
}

func (r *MovieRepository) DeleteMany(ctx context.Context, ids []int64) (int, error) {
	return r.movies.DeleteMany(ctx, ids)
}

func (r *MovieRepository) ReplaceAll(ctx context.Context, movies []models.Movie) error {
	return r.movies.ReplaceAll(ctx, movies)
}

func (r *MovieRepository) Seed(ctx context.Context) (bool, error) {
	return r.movies.Seed(ctx, SampleMovies())
}
