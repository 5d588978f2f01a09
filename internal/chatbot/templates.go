package chatbot

import (
	"fmt"
	"strings"

	"github.com/westend/backend/internal/models"
)

const (
	IntentGreeting      = "greeting"
	IntentProductSearch = "product_search"
	IntentContactInfo   = "contact_info"
	IntentCategories    = "categories"
	IntentTicketCreate  = "ticket_create"

	maxListedProducts   = 3
	maxBrowseCategories = 4
)

var generalInquiryPhrases = []string{
	"show me your products",
	"what products",
	"do you have",
	"inventory",
	"catalog",
	"list products",
}

// RenderContext is everything a template may draw on. Callers load live
// catalog data into it so rendering itself stays side-effect free.
type RenderContext struct {
	Message   string
	Products  []models.ProductMatch
	Verticals []models.Vertical
	Company   models.CompanyInfo

	// Confidence is the resolver's score; stored templates carry it
	// through when it is higher than the plain template score.
	Confidence float64
}

type Rendered struct {
	Text       string
	Confidence float64
	Payload    models.TemplatePayload
}

func Render(intent models.IntentDefinition, rc RenderContext) Rendered {
	switch intent.Name {
	case IntentProductSearch:
		return renderProductSearch(rc)
	case IntentContactInfo:
		return renderContactInfo(rc.Company)
	case IntentCategories:
		return renderCategoryList(rc.Verticals)
	}
	confidence := 0.8
	if rc.Confidence > confidence {
		confidence = rc.Confidence
	}
	return Rendered{
		Text:       intent.Template,
		Confidence: confidence,
		Payload:    models.TemplatePayload{ResponseType: "template"},
	}
}

func renderProductSearch(rc RenderContext) Rendered {
	if len(rc.Products) == 0 {
		return renderNoProducts(rc.Verticals)
	}
	if isGeneralInquiry(rc.Message) {
		return renderCategoryMenu(rc.Verticals)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "I found %d matching products. Here are the top results:\n\n", len(rc.Products))
	shown := rc.Products
	if len(shown) > maxListedProducts {
		shown = shown[:maxListedProducts]
	}
	for i, p := range shown {
		fmt.Fprintf(&b, "%d. %s\n", i+1, p.Name)
		fmt.Fprintf(&b, "Category: %s\n", p.Vertical)
		if strings.TrimSpace(p.MOQ) != "" {
			fmt.Fprintf(&b, "MOQ: %s\n", p.MOQ)
		}
		if strings.TrimSpace(p.Description) != "" {
			fmt.Fprintf(&b, "%s\n", truncate(p.Description, 100))
		}
		b.WriteString("\n")
	}
	if extra := len(rc.Products) - maxListedProducts; extra > 0 {
		fmt.Fprintf(&b, "%d more products available. Ask for more specifics!\n\n", extra)
	}
	b.WriteString("Need more help?\n")
	b.WriteString("Ask for specific products: basmati rice, amul ghee\n")
	b.WriteString("Browse categories: show me spices, dairy products\n")
	b.WriteString("Get pricing: how much for rice")

	return Rendered{
		Text:       b.String(),
		Confidence: 0.9,
		Payload:    models.TemplatePayload{ResponseType: "product_list", Products: shown},
	}
}

func renderNoProducts(verticals []models.Vertical) Rendered {
	var b strings.Builder
	b.WriteString("I couldn't find exact matches. Let me help you:\n\n")
	b.WriteString("Browse Our Categories:\n")
	for i, v := range verticals {
		if i == maxBrowseCategories {
			break
		}
		fmt.Fprintf(&b, "- %s (%d items)\n", v.Title, v.ProductCount)
	}
	if more := len(verticals) - maxBrowseCategories; more > 0 {
		fmt.Fprintf(&b, "\nAnd %d more categories...\n", more)
	}
	b.WriteString("\nTry:\n")
	b.WriteString("- rice, ghee, masala, spices\n")
	b.WriteString("- everest, amul, chings (brands)\n")
	b.WriteString("- baked goods, dairy products (categories)")

	return Rendered{
		Text:       b.String(),
		Confidence: 0.7,
		Payload:    models.TemplatePayload{ResponseType: "no_products"},
	}
}

func renderCategoryMenu(verticals []models.Vertical) Rendered {
	var b strings.Builder
	fmt.Fprintf(&b, "I'd be happy to help you find products! We offer %d main categories:\n\n", len(verticals))
	for i, v := range verticals {
		fmt.Fprintf(&b, "%d. %s (%d items)\n", i+1, v.Title, v.ProductCount)
		fmt.Fprintf(&b, "   %s\n\n", truncate(v.Description, 80))
	}
	b.WriteString("Which category interests you most?\n")
	b.WriteString("Just tell me: spices, rice, ghee, baked goods, etc.")

	return Rendered{
		Text:       b.String(),
		Confidence: 0.9,
		Payload:    models.TemplatePayload{ResponseType: "category_menu"},
	}
}

func renderCategoryList(verticals []models.Vertical) Rendered {
	var b strings.Builder
	fmt.Fprintf(&b, "We have %d main product categories:\n\n", len(verticals))
	for _, v := range verticals {
		fmt.Fprintf(&b, "- %s: %s (%d items)\n", v.Title, truncate(v.Description, 80), v.ProductCount)
	}
	b.WriteString("\nWhich category would you like to explore?")

	return Rendered{
		Text:       b.String(),
		Confidence: 0.9,
		Payload:    models.TemplatePayload{ResponseType: "category_list"},
	}
}

func renderContactInfo(c models.CompanyInfo) Rendered {
	var b strings.Builder
	b.WriteString("Here's how to reach our export team:\n\n")
	fmt.Fprintf(&b, "Email: %s\n", c.Email)
	fmt.Fprintf(&b, "Phone: %s\n", c.Phone)
	fmt.Fprintf(&b, "Address: %s\n\n", c.Address)
	if c.Hours != "" {
		fmt.Fprintf(&b, "Business Hours: %s\n\n", c.Hours)
	}
	b.WriteString("For bulk orders and international shipping, custom product requirements, quality certifications and documentation, pricing and logistics information, we typically respond within 24 hours.")

	return Rendered{
		Text:       b.String(),
		Confidence: 0.9,
		Payload:    models.TemplatePayload{ResponseType: "contact_info"},
	}
}

func isGeneralInquiry(message string) bool {
	m := strings.ToLower(strings.TrimSpace(message))
	for _, phrase := range generalInquiryPhrases {
		if strings.HasPrefix(m, phrase) {
			return true
		}
	}
	return false
}
