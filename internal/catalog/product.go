package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
	"time"
)

var (
	ErrInvalidPrice  = errors.New("price must be a non-negative number")
	ErrImageRequired = errors.New("image is required")
)

// Product is one catalog entry. ID and CreatedAt are assigned once at
// creation and never change afterwards.
type Product struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Price       float64   `json:"price"`
	Image       string    `json:"image"`
	CreatedAt   time.Time `json:"createdAt"`
}

// RawPrice holds a price as it arrived on the wire, before coercion.
// It decodes from either a JSON number or a JSON string.
type RawPrice string

func (p *RawPrice) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if string(b) == "null" {
		*p = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*p = RawPrice(s)
		return nil
	}
	*p = RawPrice(b)
	return nil
}

// Float coerces the raw value. It rejects empty input, non-numeric
// text, NaN and infinities; the sign check is the caller's policy.
func (p RawPrice) Float() (float64, error) {
	s := strings.TrimSpace(string(p))
	if s == "" {
		return 0, ErrInvalidPrice
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, ErrInvalidPrice
	}
	return f, nil
}

// ProductInput is a candidate product as submitted by the view layer,
// lacking ID and CreatedAt.
type ProductInput struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Price       RawPrice `json:"price"`
	Image       string   `json:"image"`
}

// ProductPatch carries a partial update. Nil fields are left alone.
type ProductPatch struct {
	Name        *string   `json:"name"`
	Description *string   `json:"description"`
	Category    *string   `json:"category"`
	Price       *RawPrice `json:"price"`
	Image       *string   `json:"image"`
}
