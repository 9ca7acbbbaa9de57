package repositories

import (
	"fmt"
	"net/url"

	"cineflix/proj/internal/domain/fields"
	"cineflix/proj/internal/domain/models"
)

const (
	DefaultVideoURL   = "videos/sample.mp4"
	posterPlaceholder = "https://via.placeholder.com/300x450/1a1a1a/e50914?text=%s"
)

// PosterPlaceholder builds the placeholder poster URL used when none is given.
func PosterPlaceholder(title string) string {
	return fmt.Sprintf(posterPlaceholder, url.QueryEscape(title))
}

func SampleMovies() []models.Movie {
	return []models.Movie{
		{
			ID:        1,
			Title:     "Vingadores: Ultimato",
			Synopsis:  "Os heróis restantes se unem para desfazer as ações de Thanos e restaurar o equilíbrio do universo.",
			Year:      2019,
			Genre:     fields.GenreAction,
			PosterURL: fmt.Sprintf(posterPlaceholder, "Vingadores+Ultimato"),
			VideoURL:  "videos/sample1.mp4",
			Rating:    "9.2",
		},
		{
			ID:        2,
			Title:     "Parasita",
			Synopsis:  "Uma família pobre se infiltra na vida de uma família rica com consequências inesperadas.",
			Year:      2019,
			Genre:     fields.GenreDrama,
			PosterURL: fmt.Sprintf(posterPlaceholder, "Parasita"),
			VideoURL:  "videos/sample2.mp4",
			Rating:    "8.6",
		},
		{
			ID:        3,
			Title:     "Coringa",
			Synopsis:  "A origem sombria do icônico vilão do Batman em uma Gotham City decadente.",
			Year:      2019,
			Genre:     fields.GenreDrama,
			PosterURL: fmt.Sprintf(posterPlaceholder, "Coringa"),
			VideoURL:  "videos/sample3.mp4",
			Rating:    "8.4",
		},
		{
			ID:        4,
			Title:     "Toy Story 4",
			Synopsis:  "Woody e seus amigos embarcam em uma nova aventura com novos brinquedos.",
			Year:      2019,
			Genre:     fields.GenreComedy,
			PosterURL: fmt.Sprintf(posterPlaceholder, "Toy+Story+4"),
			VideoURL:  "videos/sample4.mp4",
			Rating:    "7.8",
		},
		{
			ID:        5,
			Title:     "It: Capítulo 2",
			Synopsis:  "O Clube dos Perdedores retorna para enfrentar Pennywise mais uma vez.",
			Year:      2019,
			Genre:     fields.GenreHorror,
			PosterURL: fmt.Sprintf(posterPlaceholder, "It+Capitulo+2"),
			VideoURL:  "videos/sample5.mp4",
			Rating:    "6.5",
		},
		{
			ID:        6,
			Title:     "Blade Runner 2049",
			Synopsis:  "Um jovem blade runner descobre um segredo que pode mergulhar a sociedade no caos.",
			Year:      2017,
			Genre:     fields.GenreSciFi,
			PosterURL: fmt.Sprintf(posterPlaceholder, "Blade+Runner+2049"),
			VideoURL:  "videos/sample6.mp4",
			Rating:    "8.0",
		},
	}
}

func SamplePlans() []models.Plan {
	return []models.Plan{
		{
			ID:           1,
			Name:         "Básico",
			Price:        19.90,
			VideoQuality: "HD",
			Screens:      1,
			Features:     []string{"Qualidade HD", "1 tela simultânea", "Catálogo completo", "Sem anúncios"},
		},
		{
			ID:           2,
			Name:         "Padrão",
			Price:        29.90,
			VideoQuality: "Full HD",
			Screens:      2,
			Features:     []string{"Qualidade Full HD", "2 telas simultâneas", "Catálogo completo", "Sem anúncios", "Download offline"},
		},
		{
			ID:           3,
			Name:         "Premium",
			Price:        39.90,
			VideoQuality: "4K Ultra HD",
			Screens:      4,
			Features:     []string{"Qualidade 4K Ultra HD", "4 telas simultâneas", "Catálogo completo", "Sem anúncios", "Download offline", "Conteúdo exclusivo"},
		},
	}
}
