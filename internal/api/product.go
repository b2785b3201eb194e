package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"

	"samsonix/internal/domain"
)

// ProductClient covers the /product resource. Reads are JSON; create and
// update are multipart form posts because of the optional image file.
type ProductClient struct {
	c *Client
}

func NewProductClient(c *Client) *ProductClient { return &ProductClient{c: c} }

// ImageUpload is the optional product image. A nil upload on update means
// "keep the existing image".
type ImageUpload struct {
	Filename string
	Content  io.Reader
}

// ProductForm is the write payload; field names on the wire follow the
// catalog API's PascalCase multipart contract.
type ProductForm struct {
	CategoryID  string
	Name        string
	Description string
	Quantity    int
	UnitPrice   float64
	HotDeals    bool
	Attributes  []domain.ProductAttribute
	Image       *ImageUpload
}

// View fetches one filtered page. The filter is sent as the POST body and
// echoed in the query string, matching the backend's expectations.
func (pc *ProductClient) View(ctx context.Context, filter domain.ProductFilter) (domain.ProductPage, error) {
	q := url.Values{}
	q.Set("pageNumber", strconv.Itoa(filter.PageNumber))
	q.Set("pageSize", strconv.Itoa(filter.PageSize))
	if filter.MinPrice != nil {
		q.Set("minPrice", strconv.FormatFloat(*filter.MinPrice, 'f', -1, 64))
	}
	if filter.MaxPrice != nil {
		q.Set("maxPrice", strconv.FormatFloat(*filter.MaxPrice, 'f', -1, 64))
	}
	if filter.HotDeals != nil {
		q.Set("hotdeals", strconv.FormatBool(*filter.HotDeals))
	}

	body, err := json.Marshal(filter)
	if err != nil {
		return domain.ProductPage{}, err
	}
	var page domain.ProductPage
	if _, err := pc.c.getJSON(ctx, http.MethodPost, "/product/view?"+q.Encode(), "application/json", bytes.NewReader(body), &page); err != nil {
		return domain.ProductPage{}, err
	}
	return page, nil
}

func (pc *ProductClient) Get(ctx context.Context, id string) (domain.Product, error) {
	var p domain.Product
	if _, err := pc.c.getJSON(ctx, http.MethodGet, "/product/"+url.PathEscape(id), "", nil, &p); err != nil {
		return domain.Product{}, err
	}
	return p, nil
}

func (pc *ProductClient) Create(ctx context.Context, form ProductForm) (string, error) {
	body, contentType, err := encodeProductForm(form)
	if err != nil {
		return "", err
	}
	return pc.c.getJSON(ctx, http.MethodPost, "/product", contentType, body, nil)
}

func (pc *ProductClient) Update(ctx context.Context, id string, form ProductForm) (string, error) {
	body, contentType, err := encodeProductForm(form)
	if err != nil {
		return "", err
	}
	return pc.c.getJSON(ctx, http.MethodPut, "/product/"+url.PathEscape(id), contentType, body, nil)
}

func (pc *ProductClient) Delete(ctx context.Context, id string) (string, error) {
	return pc.c.getJSON(ctx, http.MethodDelete, "/product/"+url.PathEscape(id), "", nil, nil)
}

func encodeProductForm(form ProductForm) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := map[string]string{
		"CategoryId":         form.CategoryID,
		"ProductName":        form.Name,
		"ProductDescription": form.Description,
		"ProductQuantity":    strconv.Itoa(form.Quantity),
		"ProductUnitPrice":   strconv.FormatFloat(form.UnitPrice, 'f', -1, 64),
		"HotDeals":           strconv.FormatBool(form.HotDeals),
	}
	for name, value := range fields {
		if err := w.WriteField(name, value); err != nil {
			return nil, "", err
		}
	}

	attrs := form.Attributes
	if attrs == nil {
		attrs = []domain.ProductAttribute{}
	}
	attrJSON, err := json.Marshal(attrs)
	if err != nil {
		return nil, "", err
	}
	if err := w.WriteField("ProductAttributes", string(attrJSON)); err != nil {
		return nil, "", err
	}

	if form.Image != nil {
		part, err := w.CreateFormFile("ProductImage", form.Image.Filename)
		if err != nil {
			return nil, "", err
		}
		if _, err := io.Copy(part, form.Image.Content); err != nil {
			return nil, "", fmt.Errorf("copy product image: %w", err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}
