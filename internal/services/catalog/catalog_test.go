package catalog

import (
	"testing"

	"cineflix/proj/internal/domain/fields"
	"cineflix/proj/internal/domain/filters"
	"cineflix/proj/internal/domain/models"
	"cineflix/proj/internal/repositories"

	"github.com/stretchr/testify/assert"
)

func titles(movies []models.Movie) []string {
	out := make([]string, 0, len(movies))
	for _, m := range movies {
		out = append(out, m.Title)
	}
	return out
}

func TestFilterByText(t *testing.T) {
	movies := repositories.SampleMovies()
	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"title match ignores case", "PARASITA", []string{"Parasita"}},
		{"synopsis match", "gotham", []string{"Coringa"}},
		{"empty query keeps all", "", titles(movies)},
		{"no match", "zzz", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, titles(FilterByText(movies, tt.query)))
		})
	}
}

func TestFilterByGenre(t *testing.T) {
	movies := repositories.SampleMovies()
	assert.Equal(t, []string{"Parasita", "Coringa"}, titles(FilterByGenre(movies, fields.GenreDrama)))
	assert.Len(t, FilterByGenre(movies, fields.GenreAll), 6)
	assert.Len(t, FilterByGenre(movies, ""), 6)
}

func TestFiltersAreIdempotentAndPure(t *testing.T) {
	movies := repositories.SampleMovies()
	original := repositories.SampleMovies()

	once := FilterByText(movies, "a")
	assert.Equal(t, once, FilterByText(once, "a"))
	g := FilterByGenre(movies, fields.GenreDrama)
	assert.Equal(t, g, FilterByGenre(g, fields.GenreDrama))

	f := filters.NewMovieFilters()
	f.Sort = "-rating"
	Sort(movies, f)
	assert.Equal(t, original, movies)
}

func TestSort(t *testing.T) {
	movies := repositories.SampleMovies()
	f := filters.NewMovieFilters()

	f.Sort = "-rating"
	assert.Equal(t, "Vingadores: Ultimato", Sort(movies, f)[0].Title)

	f.Sort = "year"
	sorted := Sort(movies, f)
	assert.Equal(t, "Blade Runner 2049", sorted[0].Title)
	// stable among equal years
	assert.Equal(t, "Vingadores: Ultimato", sorted[1].Title)

	f.Sort = "title"
	assert.Equal(t, "Blade Runner 2049", Sort(movies, f)[0].Title)
}

func TestApply(t *testing.T) {
	f := filters.NewMovieFilters()
	f.Genre = fields.GenreDrama
	f.Query = "família"
	assert.Equal(t, []string{"Parasita"}, titles(Apply(repositories.SampleMovies(), f)))
}

func TestSearch(t *testing.T) {
	movies := repositories.SampleMovies()
	assert.Equal(t, []string{"It: Capítulo 2"}, titles(Search(movies, "terror")))
	assert.Equal(t, []string{"Toy Story 4"}, titles(Search(movies, "toy")))
}

func TestRelatedAndFeatured(t *testing.T) {
	movies := repositories.SampleMovies()
	related := Related(movies, movies[1])
	assert.Equal(t, []string{"Coringa"}, titles(related))

	assert.Len(t, Featured(movies, FeaturedCount), 6)
	assert.Len(t, Featured(movies[:2], FeaturedCount), 2)

	many := make([]models.Movie, 0, 10)
	for i := int64(1); i <= 10; i++ {
		many = append(many, models.Movie{ID: i, Genre: fields.GenreAction})
	}
	assert.Len(t, Related(many, many[0]), MaxRelated)
}
