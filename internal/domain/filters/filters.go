package filters

import (
	"cineflix/proj/internal/domain/fields"
	"errors"
	"strings"
)

const (
	AscSort  = "ASC"
	DescSort = "DESC"
)

const (
	SortTitle  = "title"
	SortYear   = "year"
	SortRating = "rating"
)

var MovieSortSafelist = []string{SortTitle, SortYear, SortRating}

// Filters describes a catalog query. The zero value matches every movie in
// stored order.
type Filters struct {
	Query        string       `schema:"q"`
	Genre        fields.Genre `schema:"genre"`
	Sort         string       `schema:"sort"`
	SortSafelist []string     `schema:"-"`
}

func NewMovieFilters() Filters {
	return Filters{Genre: fields.GenreAll, SortSafelist: MovieSortSafelist}
}

func (f *Filters) Sorted() bool {
	return strings.TrimPrefix(f.Sort, "-") != ""
}

func (f *Filters) SortColumn() string {
	s := strings.TrimPrefix(f.Sort, "-")
	for _, safeValue := range f.SortSafelist {
		if strings.EqualFold(s, safeValue) {
			return safeValue
		}
	}
	panic(errors.New("Unknown sort column: " + f.Sort))
}

func (f *Filters) SortDirection() string {
	if strings.HasPrefix(f.Sort, "-") {
		return DescSort
	}
	return AscSort
}

// Validate returns field errors keyed by query parameter name.
func (f *Filters) Validate() map[string]string {
	errs := make(map[string]string)
	if f.Genre != "" && f.Genre != fields.GenreAll && !f.Genre.Valid() {
		errs["genre"] = "Unknown genre"
	}
	if f.Sorted() {
		known := false
		s := strings.TrimPrefix(f.Sort, "-")
		for _, safeValue := range f.SortSafelist {
			if strings.EqualFold(s, safeValue) {
				known = true
				break
			}
		}
		if !known {
			errs["sort"] = "Value must be one of " + strings.Join(f.SortSafelist, ", ") + " (prefix with - for descending)"
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}
