// Package stub is a self-contained stand-in for the external catalog API,
// used for local development and integration tests. It keeps the catalog in
// an embedded sqlite database seeded with demo data.
package stub

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite" // pure-Go SQLite driver

	"samsonix/internal/domain"
)

var ErrNotFound = errors.New("not found")

type Store struct {
	db *sqlx.DB
}

func OpenStore(dsn string) (*Store, error) {
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// Single writer; also keeps a :memory: DSN on one real database.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		return nil, err
	}
	if err := ensureSchema(db); err != nil {
		return nil, err
	}
	if err := seedIfEmpty(db); err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func ensureSchema(db *sqlx.DB) error {
	schema := `
PRAGMA foreign_keys = ON;

CREATE TABLE IF NOT EXISTS users(
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS categories(
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_categories_name_nocase ON categories(LOWER(name));

CREATE TABLE IF NOT EXISTS category_attributes(
  id TEXT PRIMARY KEY,
  category_id TEXT NOT NULL REFERENCES categories(id) ON DELETE CASCADE,
  name TEXT NOT NULL,
  type TEXT NOT NULL CHECK (type IN ('dropdown','string','checkbox')),
  is_required INTEGER NOT NULL DEFAULT 0,
  possible_values_json TEXT NOT NULL DEFAULT '[]',
  position INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_catattrs_category ON category_attributes(category_id);

CREATE TABLE IF NOT EXISTS products(
  id TEXT PRIMARY KEY,
  category_id TEXT NOT NULL REFERENCES categories(id) ON DELETE RESTRICT,
  name TEXT NOT NULL,
  description TEXT,
  image_url TEXT,
  quantity INTEGER,
  unit_price NUMERIC,
  hot_deals INTEGER NOT NULL DEFAULT 0,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_products_category ON products(category_id);
CREATE INDEX IF NOT EXISTS idx_products_price ON products(unit_price);

CREATE TABLE IF NOT EXISTS product_attributes(
  product_id TEXT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
  category_attr_id TEXT NOT NULL,
  name TEXT NOT NULL,
  value TEXT NOT NULL,
  type TEXT NOT NULL,
  PRIMARY KEY (product_id, category_attr_id)
);
`
	_, err := db.Exec(schema)
	return err
}

func seedIfEmpty(db *sqlx.DB) error {
	var n int
	if err := db.Get(&n, `SELECT COUNT(*) FROM categories`); err != nil {
		return err
	}
	if n > 0 {
		return ensureAdmin(db)
	}

	log.Println("[seed] inserting demo categories/products")

	tx := db.MustBegin()
	tx.MustExec(`INSERT INTO categories(id,name) VALUES
	  ('cat-phones','Smartphones'),
	  ('cat-laptops','Laptops'),
	  ('cat-audio','Audio')`)

	tx.MustExec(`INSERT INTO category_attributes(id,category_id,name,type,is_required,possible_values_json,position) VALUES
	  ('attr-color','cat-phones','Color','dropdown',1,'["Black","Silver","Blue"]',0),
	  ('attr-storage','cat-phones','Storage','dropdown',1,'["128GB","256GB","512GB"]',1),
	  ('attr-5g','cat-phones','5G','checkbox',0,'[]',2),
	  ('attr-cpu','cat-laptops','Processor','string',1,'[]',0),
	  ('attr-backlit','cat-laptops','Backlit Keyboard','checkbox',0,'[]',1),
	  ('attr-wireless','cat-audio','Wireless','checkbox',0,'[]',0)`)

	tx.MustExec(`INSERT INTO products(id,category_id,name,description,image_url,quantity,unit_price,hot_deals) VALUES
	  ('prod-s24','cat-phones','Galaxy S24','Flagship smartphone','/media/products/prod-s24.jpg',15,999.00,1),
	  ('prod-a55','cat-phones','Galaxy A55','Mid-range smartphone','/media/products/prod-a55.jpg',4,449.00,0),
	  ('prod-xps','cat-laptops','XPS 13','Compact ultrabook','/media/products/prod-xps.jpg',7,1299.00,1),
	  ('prod-buds','cat-audio','Buds Pro','Noise-cancelling earbuds','/media/products/prod-buds.jpg',0,199.00,0)`)

	tx.MustExec(`INSERT INTO product_attributes(product_id,category_attr_id,name,value,type) VALUES
	  ('prod-s24','attr-color','Color','Black','dropdown'),
	  ('prod-s24','attr-storage','Storage','256GB','dropdown'),
	  ('prod-s24','attr-5g','5G','true','checkbox'),
	  ('prod-a55','attr-color','Color','Blue','dropdown'),
	  ('prod-a55','attr-storage','Storage','128GB','dropdown'),
	  ('prod-a55','attr-5g','5G','false','checkbox')`)

	if err := tx.Commit(); err != nil {
		return err
	}
	return ensureAdmin(db)
}

// ensureAdmin keeps one known admin account; idempotent, safe on every start.
func ensureAdmin(db *sqlx.DB) error {
	h, err := bcrypt.GenerateFromPassword([]byte("Passw0rd!"), 12)
	if err != nil {
		return err
	}
	_, err = db.Exec(`
		INSERT INTO users(id,email,password_hash) VALUES('u-admin','admin@samsonix.test',?)
		ON CONFLICT(email) DO NOTHING
	`, string(h))
	return err
}

// Authenticate checks credentials against the seeded users.
func (s *Store) Authenticate(email, password string) bool {
	var hash string
	if err := s.db.Get(&hash, `SELECT password_hash FROM users WHERE LOWER(email)=LOWER(?)`, email); err != nil {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

func (s *Store) ChangePassword(email, current, next string) error {
	if !s.Authenticate(email, current) {
		return errors.New("current password is incorrect")
	}
	h, err := bcrypt.GenerateFromPassword([]byte(next), 12)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`UPDATE users SET password_hash=? WHERE LOWER(email)=LOWER(?)`, string(h), email)
	return err
}

type categoryRow struct {
	ID   string `db:"id"`
	Name string `db:"name"`
}

type attrRow struct {
	ID             string `db:"id"`
	CategoryID     string `db:"category_id"`
	Name           string `db:"name"`
	Type           string `db:"type"`
	IsRequired     bool   `db:"is_required"`
	PossibleValues string `db:"possible_values_json"`
}

func (r attrRow) toDomain() domain.CategoryAttribute {
	var vals []string
	_ = json.Unmarshal([]byte(r.PossibleValues), &vals)
	return domain.CategoryAttribute{
		AttributeID:    r.ID,
		AttributeName:  r.Name,
		Type:           domain.AttributeType(r.Type),
		IsRequired:     r.IsRequired,
		PossibleValues: vals,
	}
}

func (s *Store) ListCategories() ([]domain.Category, error) {
	var rows []categoryRow
	if err := s.db.Select(&rows, `SELECT id,name FROM categories ORDER BY name`); err != nil {
		return nil, err
	}
	out := make([]domain.Category, 0, len(rows))
	for _, row := range rows {
		cat, err := s.loadCategory(row)
		if err != nil {
			return nil, err
		}
		out = append(out, cat)
	}
	return out, nil
}

func (s *Store) GetCategory(id string) (domain.Category, error) {
	var row categoryRow
	err := s.db.Get(&row, `SELECT id,name FROM categories WHERE id=?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Category{}, ErrNotFound
	}
	if err != nil {
		return domain.Category{}, err
	}
	return s.loadCategory(row)
}

func (s *Store) loadCategory(row categoryRow) (domain.Category, error) {
	var attrs []attrRow
	if err := s.db.Select(&attrs, `
		SELECT id,category_id,name,type,is_required,possible_values_json
		FROM category_attributes WHERE category_id=? ORDER BY position
	`, row.ID); err != nil {
		return domain.Category{}, err
	}
	cat := domain.Category{CategoryID: row.ID, CategoryName: row.Name, Attributes: []domain.CategoryAttribute{}}
	for _, a := range attrs {
		cat.Attributes = append(cat.Attributes, a.toDomain())
	}
	return cat, nil
}

func (s *Store) CreateCategory(cat domain.Category) (string, error) {
	id := uuid.NewString()
	tx, err := s.db.Beginx()
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`INSERT INTO categories(id,name) VALUES(?,?)`, id, cat.CategoryName); err != nil {
		return "", err
	}
	if err := insertAttributes(tx, id, cat.Attributes); err != nil {
		return "", err
	}
	return id, tx.Commit()
}

func (s *Store) UpdateCategory(id string, cat domain.Category) error {
	tx, err := s.db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.Exec(`UPDATE categories SET name=? WHERE id=?`, cat.CategoryName, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	// Replace the schema wholesale; attribute ids provided by the caller
	// survive so existing product values keep their references.
	if _, err := tx.Exec(`DELETE FROM category_attributes WHERE category_id=?`, id); err != nil {
		return err
	}
	if err := insertAttributes(tx, id, cat.Attributes); err != nil {
		return err
	}
	return tx.Commit()
}

func insertAttributes(tx *sqlx.Tx, categoryID string, attrs []domain.CategoryAttribute) error {
	for i, a := range attrs {
		if _, err := domain.ParseAttributeType(string(a.Type)); err != nil {
			return err
		}
		attrID := a.AttributeID
		if attrID == "" {
			attrID = uuid.NewString()
		}
		vals, err := json.Marshal(a.PossibleValues)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(`
			INSERT INTO category_attributes(id,category_id,name,type,is_required,possible_values_json,position)
			VALUES(?,?,?,?,?,?,?)
		`, attrID, categoryID, a.AttributeName, string(a.Type), a.IsRequired, string(vals), i); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) DeleteCategory(id string) error {
	res, err := s.db.Exec(`DELETE FROM categories WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

type productRow struct {
	ID          string   `db:"id"`
	CategoryID  string   `db:"category_id"`
	Name        string   `db:"name"`
	Description string   `db:"description"`
	ImageURL    string   `db:"image_url"`
	Quantity    *int     `db:"quantity"`
	UnitPrice   *float64 `db:"unit_price"`
	HotDeals    bool     `db:"hot_deals"`
}

func (s *Store) GetProduct(id string) (domain.Product, error) {
	var row productRow
	err := s.db.Get(&row, `
		SELECT id,category_id,name,COALESCE(description,'') AS description,
		       COALESCE(image_url,'') AS image_url,quantity,unit_price,hot_deals
		FROM products WHERE id=?
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Product{}, ErrNotFound
	}
	if err != nil {
		return domain.Product{}, err
	}
	return s.loadProduct(row)
}

func (s *Store) loadProduct(row productRow) (domain.Product, error) {
	p := domain.Product{
		ProductID:   row.ID,
		CategoryID:  row.CategoryID,
		Name:        row.Name,
		Description: row.Description,
		ImageURL:    row.ImageURL,
		Quantity:    row.Quantity,
		UnitPrice:   row.UnitPrice,
		HotDeals:    row.HotDeals,
		Attributes:  []domain.ProductAttribute{},
	}
	type paRow struct {
		CategoryAttrID string `db:"category_attr_id"`
		Name           string `db:"name"`
		Value          string `db:"value"`
		Type           string `db:"type"`
	}
	var pas []paRow
	if err := s.db.Select(&pas, `
		SELECT category_attr_id,name,value,type FROM product_attributes WHERE product_id=?
	`, row.ID); err != nil {
		return domain.Product{}, err
	}
	for _, pa := range pas {
		p.Attributes = append(p.Attributes, domain.ProductAttribute{
			CategoryAttrID: pa.CategoryAttrID,
			AttributeName:  pa.Name,
			AttributeValue: pa.Value,
			Type:           domain.AttributeType(pa.Type),
		})
	}
	return p, nil
}

// ViewProducts applies the paged filter straight in SQL; the requested page
// is echoed back unclamped.
func (s *Store) ViewProducts(filter domain.ProductFilter) (domain.ProductPage, error) {
	where := `1=1`
	args := []any{}
	if filter.MinPrice != nil {
		where += ` AND unit_price >= ?`
		args = append(args, *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		where += ` AND unit_price <= ?`
		args = append(args, *filter.MaxPrice)
	}
	if filter.HotDeals != nil {
		where += ` AND hot_deals = ?`
		args = append(args, *filter.HotDeals)
	}
	for attrID, val := range filter.AttributeFilters {
		where += ` AND EXISTS (SELECT 1 FROM product_attributes pa
		            WHERE pa.product_id = products.id AND pa.category_attr_id = ? AND pa.value = ?)`
		args = append(args, attrID, val)
	}

	var total int
	if err := s.db.Get(&total, `SELECT COUNT(*) FROM products WHERE `+where, args...); err != nil {
		return domain.ProductPage{}, err
	}

	offset := (filter.PageNumber - 1) * filter.PageSize
	var rows []productRow
	if err := s.db.Select(&rows, `
		SELECT id,category_id,name,COALESCE(description,'') AS description,
		       COALESCE(image_url,'') AS image_url,quantity,unit_price,hot_deals
		FROM products WHERE `+where+` ORDER BY created_at DESC, id LIMIT ? OFFSET ?
	`, append(args, filter.PageSize, offset)...); err != nil {
		return domain.ProductPage{}, err
	}

	page := domain.ProductPage{
		Items:      []domain.Product{},
		TotalCount: total,
		PageNumber: filter.PageNumber,
		PageSize:   filter.PageSize,
	}
	for _, row := range rows {
		p, err := s.loadProduct(row)
		if err != nil {
			return domain.ProductPage{}, err
		}
		page.Items = append(page.Items, p)
	}
	return page, nil
}

func (s *Store) CreateProduct(p domain.Product) (string, error) {
	id := uuid.NewString()
	p.ProductID = id
	tx, err := s.db.Beginx()
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`
		INSERT INTO products(id,category_id,name,description,image_url,quantity,unit_price,hot_deals)
		VALUES(?,?,?,?,?,?,?,?)
	`, id, p.CategoryID, p.Name, p.Description, p.ImageURL, p.Quantity, p.UnitPrice, p.HotDeals); err != nil {
		return "", err
	}
	if err := replaceProductAttributes(tx, id, p.Attributes); err != nil {
		return "", err
	}
	return id, tx.Commit()
}

// UpdateProduct keeps the stored image when p.ImageURL is empty.
func (s *Store) UpdateProduct(id string, p domain.Product) error {
	tx, err := s.db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.Exec(`
		UPDATE products SET category_id=?, name=?, description=?,
		       image_url=CASE WHEN ?='' THEN image_url ELSE ? END,
		       quantity=?, unit_price=?, hot_deals=?
		WHERE id=?
	`, p.CategoryID, p.Name, p.Description, p.ImageURL, p.ImageURL, p.Quantity, p.UnitPrice, p.HotDeals, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	if _, err := tx.Exec(`DELETE FROM product_attributes WHERE product_id=?`, id); err != nil {
		return err
	}
	if err := replaceProductAttributes(tx, id, p.Attributes); err != nil {
		return err
	}
	return tx.Commit()
}

func replaceProductAttributes(tx *sqlx.Tx, productID string, attrs []domain.ProductAttribute) error {
	for _, a := range attrs {
		if _, err := tx.Exec(`
			INSERT INTO product_attributes(product_id,category_attr_id,name,value,type)
			VALUES(?,?,?,?,?)
		`, productID, a.CategoryAttrID, a.AttributeName, a.AttributeValue, string(a.Type)); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) DeleteProduct(id string) error {
	res, err := s.db.Exec(`DELETE FROM products WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
