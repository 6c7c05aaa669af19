package flyergen

import (
	"fmt"
	"strings"

	"flyerstudio/internal/domain"
)

// BuildBrief renders the request's content block into the short textual brief
// the backend expects next to the structured payload. The switch is
// exhaustive over generation modes; an unknown mode yields an empty brief and
// the backend rejects the call.
func BuildBrief(req Request) string {
	switch req.Mode {
	case domain.ModeFrontCampaign:
		return campaignBrief(req.Campaign)
	case domain.ModeFrontProductService:
		return productServiceBrief(req.ProductService)
	case domain.ModeFrontSalesLetter:
		return salesLetterBrief(req.SalesLetter)
	case domain.ModeBack:
		return productListBrief(req.Products)
	}
	return ""
}

func campaignBrief(c domain.CampaignInfo) string {
	parts := []string{}
	if title := strings.TrimSpace(c.Title); title != "" {
		parts = append(parts, fmt.Sprintf("Campaign flyer for %q.", title))
	}
	if c.Subtitle != "" {
		parts = append(parts, c.Subtitle+".")
	}
	if c.Period != "" {
		parts = append(parts, "Runs "+c.Period+".")
	}
	if c.Offer != "" {
		parts = append(parts, "Offer: "+c.Offer+".")
	}
	if c.Audience != "" {
		parts = append(parts, "Audience: "+c.Audience+".")
	}
	return strings.Join(parts, " ")
}

func productServiceBrief(p domain.ProductServiceInfo) string {
	parts := []string{}
	if h := strings.TrimSpace(p.Headline); h != "" {
		parts = append(parts, fmt.Sprintf("Product flyer headlined %q.", h))
	}
	if p.Description != "" {
		parts = append(parts, p.Description+".")
	}
	if p.SellingPoint != "" {
		parts = append(parts, "Key point: "+p.SellingPoint+".")
	}
	if p.Contact != "" {
		parts = append(parts, "Contact: "+p.Contact+".")
	}
	return strings.Join(parts, " ")
}

func salesLetterBrief(s domain.SalesLetterInfo) string {
	parts := []string{}
	if s.Greeting != "" {
		parts = append(parts, s.Greeting)
	}
	if body := strings.TrimSpace(s.Body); body != "" {
		parts = append(parts, body)
	}
	if s.Signature != "" {
		parts = append(parts, "Signed: "+s.Signature)
	}
	return strings.Join(parts, " ")
}

func productListBrief(products []domain.Product) string {
	if len(products) == 0 {
		return "Back side with the shop's product list."
	}
	parts := []string{fmt.Sprintf("Back side listing %d products:", len(products))}
	for _, p := range products {
		entry := p.Name
		if p.Price != "" {
			entry += " (" + p.Price + ")"
		}
		if p.Highlight {
			entry += " [featured]"
		}
		parts = append(parts, entry+";")
	}
	return strings.Join(parts, " ")
}
