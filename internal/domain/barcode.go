package domain

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// BarcodeProduct represents a product from the barcode lookup API
type BarcodeProduct struct {
	Barcode  string         `json:"barcode_number"`
	Title    string         `json:"title"`
	Brand    string         `json:"brand"`
	Category string         `json:"category"`
	Stores   []BarcodeStore `json:"stores"`
	Images   []string       `json:"images"`
}

// BarcodeStore represents one store offer attached to a product
type BarcodeStore struct {
	Name     string    `json:"name"`
	Country  string    `json:"country,omitempty"`
	Currency string    `json:"currency,omitempty"`
	Price    PriceText `json:"price"`
	Link     string    `json:"link,omitempty"`
}

// BarcodeLookupResponse represents the response from the products endpoint
type BarcodeLookupResponse struct {
	Products []BarcodeProduct `json:"products"`
}

// PriceText keeps a store price as the provider formatted it.
// The API usually sends prices as strings but numbers are accepted too.
type PriceText string

// UnmarshalJSON accepts a JSON string, number or null
func (p *PriceText) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*p = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*p = PriceText(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	if _, err := strconv.ParseFloat(n.String(), 64); err != nil {
		return err
	}
	*p = PriceText(n.String())
	return nil
}
