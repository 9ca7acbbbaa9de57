// Package catalog holds the pure view-model functions behind the movie
// catalog: text search, genre filter, sorting and related titles. None of
// them modify their input.
package catalog

import (
	"sort"
	"strings"

	"cineflix/proj/internal/domain/fields"
	"cineflix/proj/internal/domain/filters"
	"cineflix/proj/internal/domain/models"
)

const (
	FeaturedCount = 6
	MaxRelated    = 6
)

// FilterByText keeps movies whose title or synopsis contains query,
// ignoring case. An empty query keeps everything.
func FilterByText(movies []models.Movie, query string) []models.Movie {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return clone(movies)
	}
	return keep(movies, func(m *models.Movie) bool {
		return strings.Contains(strings.ToLower(m.Title), q) ||
			strings.Contains(strings.ToLower(m.Synopsis), q)
	})
}

// FilterByGenre keeps movies of the given genre. "all" and "" keep everything.
func FilterByGenre(movies []models.Movie, genre fields.Genre) []models.Movie {
	if genre == "" || genre == fields.GenreAll {
		return clone(movies)
	}
	return keep(movies, func(m *models.Movie) bool { return m.Genre == genre })
}

// Search is the admin lookup: title or genre contains query, ignoring case.
func Search(movies []models.Movie, query string) []models.Movie {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return clone(movies)
	}
	return keep(movies, func(m *models.Movie) bool {
		return strings.Contains(strings.ToLower(m.Title), q) ||
			strings.Contains(strings.ToLower(string(m.Genre)), q)
	})
}

// Sort orders movies by the filter's sort column. Ties keep stored order.
func Sort(movies []models.Movie, f filters.Filters) []models.Movie {
	out := clone(movies)
	if !f.Sorted() {
		return out
	}
	var less func(a, b *models.Movie) bool
	switch f.SortColumn() {
	case filters.SortTitle:
		less = func(a, b *models.Movie) bool { return strings.ToLower(a.Title) < strings.ToLower(b.Title) }
	case filters.SortYear:
		less = func(a, b *models.Movie) bool { return a.Year < b.Year }
	case filters.SortRating:
		less = func(a, b *models.Movie) bool { return a.Rating.Float() < b.Rating.Float() }
	}
	desc := f.SortDirection() == filters.DescSort
	sort.SliceStable(out, func(i, j int) bool {
		if desc {
			return less(&out[j], &out[i])
		}
		return less(&out[i], &out[j])
	})
	return out
}

// Apply runs genre, text and sort in that order.
func Apply(movies []models.Movie, f filters.Filters) []models.Movie {
	return Sort(FilterByText(FilterByGenre(movies, f.Genre), f.Query), f)
}

// Featured returns the first n movies in stored order.
func Featured(movies []models.Movie, n int) []models.Movie {
	if n > len(movies) {
		n = len(movies)
	}
	return clone(movies[:n])
}

// Related returns up to MaxRelated other movies of the same genre.
func Related(movies []models.Movie, movie models.Movie) []models.Movie {
	out := keep(movies, func(m *models.Movie) bool {
		return m.Genre == movie.Genre && m.ID != movie.ID
	})
	if len(out) > MaxRelated {
		out = out[:MaxRelated]
	}
	return out
}

func keep(movies []models.Movie, pred func(*models.Movie) bool) []models.Movie {
	out := make([]models.Movie, 0, len(movies))
	for i := range movies {
		if pred(&movies[i]) {
			out = append(out, movies[i])
		}
	}
	return out
}

func clone(movies []models.Movie) []models.Movie {
	out := make([]models.Movie, len(movies))
	copy(out, movies)
	return out
}
