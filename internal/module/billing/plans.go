package billing

import "github.com/plateful/server/internal/shared/config"

// CatalogPlan describes a purchasable plan exposed to clients.
type CatalogPlan struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Tier          string   `json:"tier"`
	PriceID       string   `json:"priceId,omitempty"`
	PriceIDYearly string   `json:"priceIdYearly,omitempty"`
	Features      []string `json:"features"`
}

// Catalog holds the purchasable plans keyed by id.
type Catalog struct {
	plans []CatalogPlan
}

// NewCatalog builds the plan catalog from configured price ids.
func NewCatalog(prices config.StripePricesConfig) *Catalog {
	return &Catalog{
		plans: []CatalogPlan{
			{
				ID:   "free",
				Name: "Free",
				Tier: "free",
				Features: []string{
					"5 meal plan generations",
					"Basic dietary preferences",
				},
			},
			{
				ID:            "premium",
				Name:          "Premium",
				Tier:          "premium",
				PriceID:       prices.PremiumMonthly,
				PriceIDYearly: prices.PremiumYearly,
				Features: []string{
					"Unlimited meal plan generations",
					"Full dietary preferences",
					"Saved meal plans",
				},
			},
			{
				ID:            "family",
				Name:          "Family",
				Tier:          "family",
				PriceID:       prices.FamilyMonthly,
				PriceIDYearly: prices.FamilyYearly,
				Features: []string{
					"Everything in Premium",
					"Plans for up to 6 people",
					"Shared saved meal plans",
				},
			},
		},
	}
}

// List returns all catalog plans.
func (c *Catalog) List() []CatalogPlan {
	return c.plans
}

// ByID returns the plan with the given id.
func (c *Catalog) ByID(id string) (CatalogPlan, error) {
	for _, p := range c.plans {
		if p.ID == id {
			return p, nil
		}
	}
	return CatalogPlan{}, ErrPlanNotFound
}

// ByName returns the plan with the given display name.
func (c *Catalog) ByName(name string) (CatalogPlan, error) {
	for _, p := range c.plans {
		if p.Name == name {
			return p, nil
		}
	}
	return CatalogPlan{}, ErrPlanNotFound
}

// PriceFor returns the plan's price id for the billing interval.
// Intervals other than "year" select the monthly price.
func (p CatalogPlan) PriceFor(interval string) (string, error) {
	priceID := p.PriceID
	if interval == "year" || interval == "yearly" {
		priceID = p.PriceIDYearly
	}
	if priceID == "" {
		return "", ErrPlanNotPurchasable
	}
	return priceID, nil
}

// Purchasable reports whether the plan can be bought through checkout.
func (p CatalogPlan) Purchasable() bool {
	return p.PriceID != "" || p.PriceIDYearly != ""
}
