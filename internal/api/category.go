package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"samsonix/internal/domain"
)

// CategoryClient covers the /category resource. Writes are plain JSON.
type CategoryClient struct {
	c *Client
}

func NewCategoryClient(c *Client) *CategoryClient { return &CategoryClient{c: c} }

func (cc *CategoryClient) List(ctx context.Context) ([]domain.Category, error) {
	var cats []domain.Category
	if _, err := cc.c.getJSON(ctx, http.MethodGet, "/category/all", "", nil, &cats); err != nil {
		return nil, err
	}
	return cats, nil
}

func (cc *CategoryClient) Get(ctx context.Context, id string) (domain.Category, error) {
	var cat domain.Category
	if _, err := cc.c.getJSON(ctx, http.MethodGet, "/category/"+url.PathEscape(id), "", nil, &cat); err != nil {
		return domain.Category{}, err
	}
	return cat, nil
}

func (cc *CategoryClient) Create(ctx context.Context, cat domain.Category) (string, error) {
	body, err := json.Marshal(cat)
	if err != nil {
		return "", err
	}
	return cc.c.getJSON(ctx, http.MethodPost, "/category", "application/json", bytes.NewReader(body), nil)
}

func (cc *CategoryClient) Update(ctx context.Context, id string, cat domain.Category) (string, error) {
	body, err := json.Marshal(cat)
	if err != nil {
		return "", err
	}
	return cc.c.getJSON(ctx, http.MethodPut, "/category/"+url.PathEscape(id), "application/json", bytes.NewReader(body), nil)
}

func (cc *CategoryClient) Delete(ctx context.Context, id string) (string, error) {
	return cc.c.getJSON(ctx, http.MethodDelete, "/category/"+url.PathEscape(id), "", nil, nil)
}
