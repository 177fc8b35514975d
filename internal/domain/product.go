package domain

import (
	"context"
	"fmt"
	"math"
)

// Placeholders used when the upstream payload omits name or brand.
const (
	ProductNamePlaceholder  = "Product Not Found"
	ProductBrandPlaceholder = "N/A"
)

// ProductRecord is the normalized nutrition data of a product, per 100g.
type ProductRecord struct {
	Barcode      string  `json:"barcode"`
	Name         string  `json:"name"`
	Brand        string  `json:"brand"`
	CaloriesKcal float64 `json:"calories_kcal"`
	ProteinG     float64 `json:"protein_g"`
	CarbsG       float64 `json:"carbs_g"`
	FatG         float64 `json:"fat_g"`
	FiberG       float64 `json:"fiber_g"`
	SugarG       float64 `json:"sugar_g"`
	SaltG        float64 `json:"salt_g"`
	ImageURL     *string `json:"image_url,omitempty"`
}

// NutritionDisplay holds the formatted strings of the result screen.
type NutritionDisplay struct {
	Name     string  `json:"name"`
	Brand    string  `json:"brand"`
	Calories string  `json:"calories"`
	Protein  string  `json:"protein"`
	Carbs    string  `json:"carbs"`
	Fat      string  `json:"fat"`
	Fiber    string  `json:"fiber"`
	Sugar    string  `json:"sugar"`
	Salt     string  `json:"salt"`
	Image    *string `json:"image,omitempty"`
}

// Display formats the record: calories rounded to whole kcal, grams to one decimal.
func (p ProductRecord) Display() NutritionDisplay {
	return NutritionDisplay{
		Name:     p.Name,
		Brand:    p.Brand,
		Calories: fmt.Sprintf("%d kcal", int64(math.Round(p.CaloriesKcal))),
		Protein:  grams(p.ProteinG),
		Carbs:    grams(p.CarbsG),
		Fat:      grams(p.FatG),
		Fiber:    grams(p.FiberG),
		Sugar:    grams(p.SugarG),
		Salt:     grams(p.SaltG),
		Image:    p.ImageURL,
	}
}

func grams(v float64) string {
	return fmt.Sprintf("%.1fg", v)
}

// NutritionLookup is the remote food database boundary.
type NutritionLookup interface {
	// Lookup returns ErrProductNotFound or a *TransportError on failure.
	Lookup(ctx context.Context, barcode string) (*ProductRecord, error)
}

// ImageFetcher downloads product images.
type ImageFetcher interface {
	FetchImage(ctx context.Context, imageURL string) ([]byte, error)
}
