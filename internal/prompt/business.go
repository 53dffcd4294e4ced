package prompt

import (
	"fmt"
	"strings"

	"github.com/BerylCAtieno/market-sim-agent/internal/models"
)

// MaxContextProducts bounds how much of the catalogue goes into a prompt.
const MaxContextProducts = 8

func BusinessContext(biz models.Business) string {
	var b strings.Builder

	b.WriteString("BUSINESS CONTEXT:\n")
	b.WriteString(fmt.Sprintf("Name: %s\n", biz.Name))
	b.WriteString(fmt.Sprintf("Type: %s\n", biz.Type))
	b.WriteString(fmt.Sprintf("Tagline: \"%s\"\n", biz.Tagline))
	b.WriteString(fmt.Sprintf("Description: %s\n", biz.Description))
	b.WriteString(fmt.Sprintf("Location: %s\n", biz.Address))
	b.WriteString(fmt.Sprintf("Price Range: %s\n", biz.PriceRange))
	b.WriteString(fmt.Sprintf("Rating: %v/5\n", biz.Rating))
	if biz.EstablishedYear > 0 {
		b.WriteString(fmt.Sprintf("Established: %d\n", biz.EstablishedYear))
	}
	if biz.MonthlyRevenue > 0 {
		b.WriteString(fmt.Sprintf("Monthly Revenue: %s\n", dollars(biz.MonthlyRevenue)))
	}
	if biz.AvgCustomersPerDay > 0 {
		b.WriteString(fmt.Sprintf("Avg Customers/Day: %d\n", biz.AvgCustomersPerDay))
	}

	b.WriteString("\nMENU/PRODUCTS:")
	products := biz.Products
	if len(products) > MaxContextProducts {
		products = products[:MaxContextProducts]
	}
	for _, p := range products {
		b.WriteString(fmt.Sprintf("\n  - %s ($%v) - %s", p.Name, p.Price, p.Description))
		if p.IsPopular {
			b.WriteString(" [POPULAR]")
		}
		if p.IsNew {
			b.WriteString(" [NEW]")
		}
	}

	return b.String()
}
