package fields

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Rating is persisted as a decimal string ("8.6") to keep the stored layout,
// but older documents may carry a bare number, so both are accepted.
type Rating string

func NewRating(value float64) Rating {
	return Rating(strconv.FormatFloat(value, 'f', -1, 64))
}

// Float returns the numeric rating, or 0 when it cannot be parsed.
func (r Rating) Float() float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(string(r)), 64)
	if err != nil {
		return 0
	}
	return f
}

func (r *Rating) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*r = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*r = Rating(s)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*r = NewRating(f)
	return nil
}

type Genre string

const (
	GenreAll    Genre = "all"
	GenreAction Genre = "acao"
	GenreDrama  Genre = "drama"
	GenreComedy Genre = "comedia"
	GenreHorror Genre = "terror"
	GenreSciFi  Genre = "ficcao"
)

var Genres = []Genre{GenreAction, GenreDrama, GenreComedy, GenreHorror, GenreSciFi}

func (g Genre) Valid() bool {
	for _, known := range Genres {
		if g == known {
			return true
		}
	}
	return false
}

// Label is the display name used by reports.
func (g Genre) Label() string {
	switch g {
	case GenreAction:
		return "Ação"
	case GenreDrama:
		return "Drama"
	case GenreComedy:
		return "Comédia"
	case GenreHorror:
		return "Terror"
	case GenreSciFi:
		return "Ficção Científica"
	}
	return string(g)
}

type Period string

const (
	PeriodMonthly Period = "monthly"
	PeriodYearly  Period = "yearly"
)

func (p Period) Valid() bool {
	return p == PeriodMonthly || p == PeriodYearly
}
