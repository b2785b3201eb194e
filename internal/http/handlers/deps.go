package handlers

import (
	"samsonix/internal/api"
	"samsonix/internal/config"
	"samsonix/internal/mail"
	"samsonix/internal/services"
	"samsonix/internal/token"
)

type Deps struct {
	Session *services.SessionManager

	PageHandler     *PageHandler
	ProductHandler  *ProductHandler
	AuthHandler     *AuthHandler
	AdminProducts   *AdminProductHandler
	AdminCategories *AdminCategoryHandler
}

func NewDeps(cfg config.Config, tokens *token.Store) *Deps {
	client := api.NewClient(cfg.APIBaseURL, tokens)
	users := api.NewUserClient(client)
	cats := api.NewCategoryClient(client)
	prods := api.NewProductClient(client)

	sess := services.NewSessionManager(tokens, users)
	// Any backend 401 forces a logout before the caller sees the error.
	client.OnUnauthorized(sess.Invalidate)

	catalog := services.NewCatalogService(cats, prods)
	mailer := mail.New(cfg.ResendAPIKey, cfg.ContactFrom, cfg.ContactTo)

	return &Deps{
		Session:         sess,
		PageHandler:     &PageHandler{Catalog: catalog, Mailer: mailer},
		ProductHandler:  &ProductHandler{Catalog: catalog},
		AuthHandler:     &AuthHandler{Session: sess, Users: users},
		AdminProducts:   &AdminProductHandler{Catalog: catalog, Products: prods},
		AdminCategories: &AdminCategoryHandler{Catalog: catalog, Categories: cats},
	}
}
