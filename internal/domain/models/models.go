package models

import (
	"cineflix/proj/internal/domain/fields"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// JSON names below are the persisted layout and must not change.

type Movie struct {
	ID         int64         `json:"id"`                    // Unique id, clock-derived for new records
	Title      string        `json:"titulo"`                // Movie title
	Synopsis   string        `json:"sinopse"`               // Short plot description
	Year       int           `json:"ano_lancamento"`        // Release year
	Genre      fields.Genre  `json:"genero"`                // One of fields.Genres
	PosterURL  string        `json:"url_poster"`            // Poster image location
	VideoURL   string        `json:"url_video"`             // Playable asset location
	Rating     fields.Rating `json:"rating"`                // Decimal rating kept as a string
	UploadedAt *time.Time    `json:"data_upload,omitempty"` // Set when added through the admin panel
}

func (m *Movie) GetID() int64   { return m.ID }
func (m *Movie) SetID(id int64) { m.ID = id }

type User struct {
	ID                 int64         `json:"id"`
	Name               string        `json:"name"`
	Email              string        `json:"email"`
	Password           string        `json:"password"`
	PlanID             *int64        `json:"plano_id"`
	CreatedAt          time.Time     `json:"data_criacao"`
	SubscriptionStart  *time.Time    `json:"subscription_start,omitempty"`
	SubscriptionPeriod fields.Period `json:"subscription_period,omitempty"`
}

func (u *User) GetID() int64   { return u.ID }
func (u *User) SetID(id int64) { u.ID = id }

func (u *User) HasPlan() bool {
	return u.PlanID != nil
}

type Plan struct {
	ID           int64    `json:"id"`
	Name         string   `json:"nome"`
	Price        float64  `json:"preco"`
	VideoQuality string   `json:"qualidade_video"`
	Screens      int      `json:"telas_simultaneas"`
	Features     []string `json:"features"`
}

func (p *Plan) GetID() int64   { return p.ID }
func (p *Plan) SetID(id int64) { p.ID = id }

// Slug is the lowercase, accent-free plan name ("Padrão" -> "padrao").
func (p *Plan) Slug() string {
	return Slugify(p.Name)
}

func Slugify(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(strings.TrimSpace(out))
}

const PaymentStatusActive = "ativo"

type Subscription struct {
	ID            int64         `json:"id"`
	UserID        int64         `json:"usuario_id"`
	PlanID        int64         `json:"plano_id"`
	StartDate     time.Time     `json:"data_inicio"`
	EndDate       time.Time     `json:"data_fim"`
	PaymentStatus string        `json:"status_pagamento"`
	AmountPaid    float64       `json:"valor_pago"`
	Period        fields.Period `json:"periodo"`
}

func (s *Subscription) GetID() int64   { return s.ID }
func (s *Subscription) SetID(id int64) { s.ID = id }

// Progress is one entry of the watchProgress mapping. Timestamp is in
// milliseconds since the epoch.
type Progress struct {
	CurrentTime float64 `json:"currentTime"`
	Duration    float64 `json:"duration"`
	Timestamp   int64   `json:"timestamp"`
}

const HiddenPassword = "[HIDDEN]"

// ExportDocument is the backup format. On import a nil collection means
// "not present" and leaves the stored one untouched.
type ExportDocument struct {
	Movies     []Movie   `json:"movies"`
	Users      []User    `json:"users"`
	Plans      []Plan    `json:"plans"`
	ExportDate time.Time `json:"exportDate"`
}
