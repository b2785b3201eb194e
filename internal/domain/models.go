package domain

import "fmt"

// Envelope is the uniform response wrapper the catalog API uses.
type Envelope struct {
	Success        bool   `json:"success"`
	SuccessMessage string `json:"successMessage"`
	ErrorMessage   string `json:"errorMessage"`
}

// AttributeType is the closed set of category attribute kinds.
type AttributeType string

const (
	AttributeDropdown AttributeType = "dropdown"
	AttributeString   AttributeType = "string"
	AttributeCheckbox AttributeType = "checkbox"
)

// ParseAttributeType fails closed on anything outside the known set.
func ParseAttributeType(s string) (AttributeType, error) {
	switch AttributeType(s) {
	case AttributeDropdown, AttributeString, AttributeCheckbox:
		return AttributeType(s), nil
	}
	return "", fmt.Errorf("unknown attribute type %q", s)
}

type CategoryAttribute struct {
	AttributeID    string        `json:"attributeId,omitempty"`
	AttributeName  string        `json:"attributeName"`
	Type           AttributeType `json:"type"`
	IsRequired     bool          `json:"isRequired"`
	PossibleValues []string      `json:"possibleValuesJson"`
}

type Category struct {
	CategoryID   string              `json:"categoryId,omitempty"`
	CategoryName string              `json:"categoryName"`
	Attributes   []CategoryAttribute `json:"categoryAttributes"`
}

// ProductAttribute is one serialized attribute value on a product.
// Field casing matches the catalog API contract exactly; AttributeValue is
// always a string, checkbox values included ("true"/"false").
type ProductAttribute struct {
	CategoryAttrID string        `json:"CategoryAttrId"`
	AttributeName  string        `json:"AttributeName"`
	AttributeValue string        `json:"AttributeValue"`
	Type           AttributeType `json:"ProductAttributeType"`
}

type Product struct {
	ProductID   string             `json:"productId"`
	CategoryID  string             `json:"categoryId"`
	Name        string             `json:"productName"`
	Description string             `json:"productDescription"`
	ImageURL    string             `json:"productImageUrl"`
	Quantity    *int               `json:"productQuantity"`
	UnitPrice   *float64           `json:"productUnitPrice"`
	HotDeals    bool               `json:"hotDeals"`
	Attributes  []ProductAttribute `json:"productAttributes"`
}

// InStock reports whether the product has any stock; a nil quantity is
// treated as unknown-but-available.
func (p Product) InStock() bool {
	return p.Quantity == nil || *p.Quantity > 0
}

// LowStock mirrors the storefront badge rule: known quantity under 10.
func (p Product) LowStock() bool {
	return p.Quantity != nil && *p.Quantity > 0 && *p.Quantity < 10
}

// ProductFilter is the paging + filter body for the product view endpoint.
type ProductFilter struct {
	PageNumber       int               `json:"pageNumber"`
	PageSize         int               `json:"pageSize"`
	MinPrice         *float64          `json:"minPrice,omitempty"`
	MaxPrice         *float64          `json:"maxPrice,omitempty"`
	HotDeals         *bool             `json:"hotdeals,omitempty"`
	AttributeFilters map[string]string `json:"attributeFilters,omitempty"`
}

// ProductPage echoes the requested page; the server does not clamp.
type ProductPage struct {
	Items      []Product `json:"items"`
	TotalCount int       `json:"totalCount"`
	PageNumber int       `json:"pageNumber"`
	PageSize   int       `json:"pageSize"`
}

func (p ProductPage) TotalPages() int {
	if p.PageSize <= 0 {
		return 0
	}
	return (p.TotalCount + p.PageSize - 1) / p.PageSize
}
