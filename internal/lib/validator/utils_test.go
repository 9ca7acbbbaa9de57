package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type payment struct {
	CardNumber string `json:"card_number" validate:"cardnumber"`
	Expiry     string `json:"expiry" validate:"cardexpiry"`
	CVV        string `json:"cvv" validate:"numeric,min=3,max=4"`
	HolderName string `validate:"required" errorMsg:"Name on card is required"`
}

func TestValidateStruct(t *testing.T) {
	v := New()
	ok := payment{CardNumber: "4111 1111 1111 1111", Expiry: "12/29", CVV: "123", HolderName: "Ana"}
	assert.Nil(t, ValidateStruct(v, ok))

	bad := payment{CardNumber: "4111", Expiry: "1229", CVV: "12"}
	errs := ValidateStruct(v, &bad)
	assert.Equal(t, "Card number must have 13 to 19 digits", errs["card_number"])
	assert.Equal(t, "Expiry must be in MM/YY format", errs["expiry"])
	assert.Equal(t, "The minimum value is 3", errs["cvv"])
	assert.Equal(t, "Name on card is required", errs["holder_name"])
}

func TestIsEmail(t *testing.T) {
	cases := map[string]bool{
		"a@b.co":       true,
		"ana@mail.com": true,
		"a b@c.d":      false,
		"a@b":          false,
		"@b.c":         false,
		"":             false,
	}
	for in, want := range cases {
		assert.Equal(t, want, IsEmail(in), in)
	}
}

func TestCamelToSnake(t *testing.T) {
	assert.Equal(t, "holder_name", camelToSnake("HolderName"))
	assert.Equal(t, "cvv", camelToSnake("cvv"))
}
