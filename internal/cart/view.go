package cart

import (
	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/pricing"
)

// ItemView is a rendered line item.
type ItemView struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	ImageRef  string `json:"image_ref,omitempty"`
	UnitPrice string `json:"unit_price"`
	Quantity  int    `json:"quantity"`
	LineTotal string `json:"line_total"`
}

// View is the cart screen model. Summary is omitted for an empty cart.
type View struct {
	Items     []ItemView       `json:"items"`
	ItemCount int              `json:"item_count"`
	Summary   *pricing.Summary `json:"summary,omitempty"`
}

// Render builds the cart view, computing totals fresh from c.
func Render(c domain.Cart, policy domain.PricingPolicy) View {
	items := make([]ItemView, 0, len(c.Items))
	for _, it := range c.Items {
		items = append(items, ItemView{
			ProductID: it.ProductID,
			Name:      it.Name,
			ImageRef:  it.ImageRef,
			UnitPrice: pricing.Display(it.UnitPrice),
			Quantity:  it.Quantity,
			LineTotal: pricing.Display(it.LineTotal()),
		})
	}
	return View{
		Items:     items,
		ItemCount: c.ItemCount(),
		Summary:   pricing.Summarize(c.Items, policy),
	}
}
