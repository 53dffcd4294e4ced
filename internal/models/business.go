package models

type PriceRange string

const (
	PriceBudget   PriceRange = "$"
	PriceModerate PriceRange = "$$"
	PriceUpscale  PriceRange = "$$$"
	PriceLuxury   PriceRange = "$$$$"
)

type Product struct {
	ID          string  `json:"id,omitempty"`
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	Price       float64 `json:"price"`
	Description string  `json:"description"`
	IsNew       bool    `json:"isNew,omitempty"`
	IsPopular   bool    `json:"isPopular,omitempty"`
}

type Business struct {
	ID                 string       `json:"id"`
	Name               string       `json:"name" binding:"required"`
	Type               string       `json:"type"`
	WebsiteURL         string       `json:"websiteUrl,omitempty"`
	Description        string       `json:"description"`
	Tagline            string       `json:"tagline"`
	Location           *GeoLocation `json:"location,omitempty"`
	Address            string       `json:"address"`
	Products           []Product    `json:"products"`
	PriceRange         PriceRange   `json:"priceRange"`
	Rating             float64      `json:"rating"`
	EstablishedYear    int          `json:"establishedYear,omitempty"`
	MonthlyRevenue     float64      `json:"monthlyRevenue,omitempty"`
	AvgCustomersPerDay int          `json:"avgCustomersPerDay,omitempty"`
}
