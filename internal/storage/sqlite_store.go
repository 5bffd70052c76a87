package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"

	"github.com/denisok6893-rgb/leadqual/internal/domain"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate record")
)

type SQLiteStore struct {
	db *sql.DB
}

func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	// every connection to :memory: is a separate database
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}
	if _, err := db.Exec(`PRAGMA journal_mode=WAL;`); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.Exec(`PRAGMA foreign_keys=ON;`); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *SQLiteStore) EnsureSchema(ctx context.Context) error {
	stmts := []string{`
CREATE TABLE IF NOT EXISTS buyers (
  id TEXT PRIMARY KEY,
  full_name TEXT NOT NULL,
  email TEXT NOT NULL UNIQUE,
  phone TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  budget REAL NOT NULL,
  locations_json TEXT NOT NULL DEFAULT '[]',
  property_types_json TEXT NOT NULL DEFAULT '[]',
  buying_intent TEXT,
  score INTEGER NOT NULL,
  score_tier TEXT NOT NULL,
  created_at TIMESTAMP NOT NULL
);`, `
CREATE TABLE IF NOT EXISTS marketers (
  id TEXT PRIMARY KEY,
  full_name TEXT NOT NULL,
  company_name TEXT NOT NULL DEFAULT '',
  email TEXT NOT NULL UNIQUE,
  phone TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  role TEXT NOT NULL,
  office_location TEXT NOT NULL,
  created_at TIMESTAMP NOT NULL
);`, `
CREATE TABLE IF NOT EXISTS properties (
  id TEXT PRIMARY KEY,
  marketer_id TEXT NOT NULL DEFAULT '',
  title TEXT NOT NULL,
  type TEXT NOT NULL,
  location TEXT NOT NULL,
  project_name TEXT NOT NULL DEFAULT '',
  price REAL NOT NULL,
  area REAL NOT NULL DEFAULT 0,
  bedrooms INTEGER NOT NULL DEFAULT 0,
  bathrooms INTEGER NOT NULL DEFAULT 0,
  delivery_date TIMESTAMP,
  payment_plan TEXT NOT NULL DEFAULT '',
  images_json TEXT NOT NULL DEFAULT '[]',
  description TEXT NOT NULL DEFAULT '',
  status TEXT NOT NULL,
  created_at TIMESTAMP NOT NULL,
  updated_at TIMESTAMP NOT NULL
);`, `
CREATE TABLE IF NOT EXISTS leads (
  id TEXT PRIMARY KEY,
  buyer_id TEXT NOT NULL REFERENCES buyers(id) ON DELETE CASCADE,
  marketer_id TEXT NOT NULL,
  property_id TEXT NOT NULL REFERENCES properties(id) ON DELETE CASCADE,
  buyer_score INTEGER NOT NULL,
  buyer_score_tier TEXT NOT NULL,
  buyer_name TEXT NOT NULL,
  buyer_phone TEXT NOT NULL,
  buyer_email TEXT NOT NULL,
  buyer_budget REAL NOT NULL,
  buyer_locations_json TEXT NOT NULL DEFAULT '[]',
  buyer_property_types_json TEXT NOT NULL DEFAULT '[]',
  status TEXT NOT NULL,
  created_at TIMESTAMP NOT NULL,
  UNIQUE (buyer_id, property_id)
);`,
		`CREATE INDEX IF NOT EXISTS idx_properties_location ON properties(location);`,
		`CREATE INDEX IF NOT EXISTS idx_properties_price ON properties(price);`,
		`CREATE INDEX IF NOT EXISTS idx_leads_marketer ON leads(marketer_id);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// ---- buyers ----

func (s *SQLiteStore) CreateBuyer(ctx context.Context, b domain.Buyer) (domain.Buyer, error) {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}
	locs, _ := json.Marshal(nonNil(b.Locations))
	types, _ := json.Marshal(nonNil(b.PropertyTypes))

	var intent sql.NullString
	if b.BuyingIntent != nil {
		intent = sql.NullString{String: string(*b.BuyingIntent), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
INSERT INTO buyers
(id, full_name, email, phone, password_hash, budget, locations_json, property_types_json, buying_intent, score, score_tier, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`,
		b.ID, b.FullName, b.Email, b.Phone, b.PasswordHash, b.Budget, string(locs), string(types),
		intent, b.Score, string(b.Tier), b.CreatedAt,
	)
	if err != nil {
		return domain.Buyer{}, fmt.Errorf("insert buyer: %w", mapErr(err))
	}
	return b, nil
}

const buyerColumns = `id, full_name, email, phone, password_hash, budget, locations_json, property_types_json, buying_intent, score, score_tier, created_at`

func (s *SQLiteStore) GetBuyer(ctx context.Context, id string) (domain.Buyer, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+buyerColumns+` FROM buyers WHERE id = ?`, id)
	return scanBuyer(row)
}

// FindBuyerByContact returns the buyer registered with the given email or phone.
// Empty arguments are ignored.
func (s *SQLiteStore) FindBuyerByContact(ctx context.Context, email, phone string) (domain.Buyer, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+buyerColumns+` FROM buyers
WHERE (? != '' AND email = ?) OR (? != '' AND phone = ?) LIMIT 1`, email, email, phone, phone)
	return scanBuyer(row)
}

func scanBuyer(row *sql.Row) (domain.Buyer, error) {
	var b domain.Buyer
	var locJSON, typesJSON, tier string
	var intent sql.NullString
	err := row.Scan(&b.ID, &b.FullName, &b.Email, &b.Phone, &b.PasswordHash, &b.Budget,
		&locJSON, &typesJSON, &intent, &b.Score, &tier, &b.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Buyer{}, ErrNotFound
	}
	if err != nil {
		return domain.Buyer{}, fmt.Errorf("scan buyer: %w", err)
	}
	_ = json.Unmarshal([]byte(locJSON), &b.Locations)
	_ = json.Unmarshal([]byte(typesJSON), &b.PropertyTypes)
	if intent.Valid {
		bi := domain.BuyingIntent(intent.String)
		b.BuyingIntent = &bi
	}
	b.Tier = domain.Tier(tier)
	return b, nil
}

// ---- marketers ----

func (s *SQLiteStore) CreateMarketer(ctx context.Context, m domain.Marketer) (domain.Marketer, error) {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO marketers
(id, full_name, company_name, email, phone, password_hash, role, office_location, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
`,
		m.ID, m.FullName, m.CompanyName, m.Email, m.Phone, m.PasswordHash, string(m.Role), m.OfficeLocation, m.CreatedAt,
	)
	if err != nil {
		return domain.Marketer{}, fmt.Errorf("insert marketer: %w", mapErr(err))
	}
	return m, nil
}

const marketerColumns = `id, full_name, company_name, email, phone, password_hash, role, office_location, created_at`

func (s *SQLiteStore) GetMarketer(ctx context.Context, id string) (domain.Marketer, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+marketerColumns+` FROM marketers WHERE id = ?`, id)
	return scanMarketer(row)
}

func (s *SQLiteStore) FindMarketerByContact(ctx context.Context, email, phone string) (domain.Marketer, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+marketerColumns+` FROM marketers
WHERE (? != '' AND email = ?) OR (? != '' AND phone = ?) LIMIT 1`, email, email, phone, phone)
	return scanMarketer(row)
}

func scanMarketer(row *sql.Row) (domain.Marketer, error) {
	var m domain.Marketer
	var role string
	err := row.Scan(&m.ID, &m.FullName, &m.CompanyName, &m.Email, &m.Phone, &m.PasswordHash, &role, &m.OfficeLocation, &m.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Marketer{}, ErrNotFound
	}
	if err != nil {
		return domain.Marketer{}, fmt.Errorf("scan marketer: %w", err)
	}
	m.Role = domain.MarketerRole(role)
	return m, nil
}

// ---- properties ----

const propertyColumns = `id, marketer_id, title, type, location, project_name, price, area, bedrooms, bathrooms,
delivery_date, payment_plan, images_json, description, status, created_at, updated_at`

const insertProperty = `(id, marketer_id, title, type, location, project_name, price, area, bedrooms, bathrooms,
delivery_date, payment_plan, images_json, description, status, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func propertyArgs(p domain.Property) []any {
	img, _ := json.Marshal(nonNil(p.Images))
	var delivery sql.NullTime
	if p.DeliveryDate != nil {
		delivery = sql.NullTime{Time: *p.DeliveryDate, Valid: true}
	}
	return []any{
		p.ID, p.MarketerID, p.Title, string(p.Type), p.Location, p.ProjectName, p.Price, p.Area, p.Bedrooms, p.Bathrooms,
		delivery, p.PaymentPlan, string(img), p.Description, string(p.Status), p.CreatedAt, p.UpdatedAt,
	}
}

func stampProperty(p *domain.Property) {
	now := time.Now().UTC()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Status == "" {
		p.Status = domain.StatusAvailable
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = p.CreatedAt
	}
}

// UpsertProperties inserts an initial dataset without duplicating by id.
func (s *SQLiteStore) UpsertProperties(ctx context.Context, items []domain.Property) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO properties `+insertProperty)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, p := range items {
		stampProperty(&p)
		if _, err := stmt.ExecContext(ctx, propertyArgs(p)...); err != nil {
			return fmt.Errorf("upsert property %s: %w", p.ID, err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) CreateProperty(ctx context.Context, p domain.Property) (domain.Property, error) {
	stampProperty(&p)
	if _, err := s.db.ExecContext(ctx, `INSERT INTO properties `+insertProperty, propertyArgs(p)...); err != nil {
		return domain.Property{}, fmt.Errorf("insert property: %w", mapErr(err))
	}
	return p, nil
}

func (s *SQLiteStore) DeleteProperty(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM properties WHERE id = ?`, id)
	if err != nil {
		return false, err
	}
	aff, _ := res.RowsAffected()
	return aff > 0, nil
}

func (s *SQLiteStore) GetProperty(ctx context.Context, id string) (domain.Property, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+propertyColumns+` FROM properties WHERE id = ?`, id)
	p, err := scanProperty(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Property{}, ErrNotFound
	}
	return p, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProperty(row scanner) (domain.Property, error) {
	var p domain.Property
	var typ, status, imgJSON string
	var delivery sql.NullTime
	if err := row.Scan(
		&p.ID, &p.MarketerID, &p.Title, &typ, &p.Location, &p.ProjectName, &p.Price, &p.Area, &p.Bedrooms, &p.Bathrooms,
		&delivery, &p.PaymentPlan, &imgJSON, &p.Description, &status, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return domain.Property{}, err
	}
	_ = json.Unmarshal([]byte(imgJSON), &p.Images)
	p.Type = domain.PropertyType(typ)
	p.Status = domain.PropertyStatus(status)
	if delivery.Valid {
		d := delivery.Time
		p.DeliveryDate = &d
	}
	return p, nil
}

// PropertyFilter narrows a property listing. Zero values mean "any".
type PropertyFilter struct {
	Location    string
	Type        domain.PropertyType
	MinPrice    float64
	MaxPrice    float64
	MinBedrooms int
	MinArea     float64
	Status      domain.PropertyStatus
	MarketerID  string
	Sort        string // price_asc|price_desc|newest
	Limit       int
	Offset      int
}

func (s *SQLiteStore) ListPropertiesFiltered(ctx context.Context, f PropertyFilter) ([]domain.Property, int, error) {
	if f.Limit <= 0 {
		f.Limit = 20
	}
	if f.Offset < 0 {
		f.Offset = 0
	}

	where := make([]string, 0, 8)
	args := make([]any, 0, 10)

	if strings.TrimSpace(f.Location) != "" {
		// contains, case-insensitive
		where = append(where, "LOWER(location) LIKE '%' || LOWER(?) || '%'")
		args = append(args, f.Location)
	}
	if f.Type != "" {
		where = append(where, "type = ?")
		args = append(args, string(f.Type))
	}
	if f.MinPrice > 0 {
		where = append(where, "price >= ?")
		args = append(args, f.MinPrice)
	}
	if f.MaxPrice > 0 {
		where = append(where, "price <= ?")
		args = append(args, f.MaxPrice)
	}
	if f.MinBedrooms > 0 {
		where = append(where, "bedrooms >= ?")
		args = append(args, f.MinBedrooms)
	}
	if f.MinArea > 0 {
		where = append(where, "area >= ?")
		args = append(args, f.MinArea)
	}
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(f.Status))
	}
	if f.MarketerID != "" {
		where = append(where, "marketer_id = ?")
		args = append(args, f.MarketerID)
	}

	whereSQL := ""
	if len(where) > 0 {
		whereSQL = "WHERE " + strings.Join(where, " AND ")
	}

	orderSQL := "ORDER BY id"
	switch f.Sort {
	case "price_asc":
		orderSQL = "ORDER BY price ASC, id"
	case "price_desc":
		orderSQL = "ORDER BY price DESC, id"
	case "newest":
		orderSQL = "ORDER BY created_at DESC, id"
	}

	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM properties "+whereSQL, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	rowsSQL := "SELECT " + propertyColumns + "\nFROM properties\n" + whereSQL + "\n" + orderSQL + "\nLIMIT ? OFFSET ?"
	rowsArgs := append(append([]any{}, args...), f.Limit, f.Offset)

	rows, err := s.db.QueryContext(ctx, rowsSQL, rowsArgs...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []domain.Property
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// ---- leads ----

const leadColumns = `id, buyer_id, marketer_id, property_id, buyer_score, buyer_score_tier, buyer_name, buyer_phone,
buyer_email, buyer_budget, buyer_locations_json, buyer_property_types_json, status, created_at`

func (s *SQLiteStore) CreateLead(ctx context.Context, l domain.Lead) (domain.Lead, error) {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now().UTC()
	}
	locs, _ := json.Marshal(nonNil(l.BuyerLocations))
	types, _ := json.Marshal(nonNil(l.BuyerPropertyTypes))

	_, err := s.db.ExecContext(ctx, `INSERT INTO leads (`+leadColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.ID, l.BuyerID, l.MarketerID, l.PropertyID, l.BuyerScore, string(l.BuyerTier), l.BuyerName, l.BuyerPhone,
		l.BuyerEmail, l.BuyerBudget, string(locs), string(types), string(l.Status), l.CreatedAt,
	)
	if err != nil {
		return domain.Lead{}, fmt.Errorf("insert lead: %w", mapErr(err))
	}
	return l, nil
}

func (s *SQLiteStore) GetLead(ctx context.Context, id string) (domain.Lead, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = ?`, id)
	l, err := scanLead(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Lead{}, ErrNotFound
	}
	return l, err
}

func (s *SQLiteStore) FindLead(ctx context.Context, buyerID, propertyID string) (domain.Lead, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+leadColumns+` FROM leads WHERE buyer_id = ? AND property_id = ?`, buyerID, propertyID)
	l, err := scanLead(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Lead{}, ErrNotFound
	}
	return l, err
}

type LeadFilter struct {
	MarketerID string
	BuyerID    string
	Status     domain.LeadStatus
}

func (s *SQLiteStore) ListLeads(ctx context.Context, f LeadFilter) ([]domain.Lead, error) {
	where := []string{"1 = 1"}
	var args []any
	if f.MarketerID != "" {
		where = append(where, "marketer_id = ?")
		args = append(args, f.MarketerID)
	}
	if f.BuyerID != "" {
		where = append(where, "buyer_id = ?")
		args = append(args, f.BuyerID)
	}
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(f.Status))
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+leadColumns+` FROM leads WHERE `+strings.Join(where, " AND ")+` ORDER BY buyer_score DESC, created_at`,
		args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Lead
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) UpdateLeadStatus(ctx context.Context, id string, status domain.LeadStatus) error {
	res, err := s.db.ExecContext(ctx, `UPDATE leads SET status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		return err
	}
	if aff, _ := res.RowsAffected(); aff == 0 {
		return ErrNotFound
	}
	return nil
}

func scanLead(row scanner) (domain.Lead, error) {
	var l domain.Lead
	var tier, status, locJSON, typesJSON string
	if err := row.Scan(
		&l.ID, &l.BuyerID, &l.MarketerID, &l.PropertyID, &l.BuyerScore, &tier, &l.BuyerName, &l.BuyerPhone,
		&l.BuyerEmail, &l.BuyerBudget, &locJSON, &typesJSON, &status, &l.CreatedAt,
	); err != nil {
		return domain.Lead{}, err
	}
	_ = json.Unmarshal([]byte(locJSON), &l.BuyerLocations)
	_ = json.Unmarshal([]byte(typesJSON), &l.BuyerPropertyTypes)
	l.BuyerTier = domain.Tier(tier)
	l.Status = domain.LeadStatus(status)
	return l, nil
}

// mapErr turns unique constraint violations into ErrDuplicate.
func mapErr(err error) error {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	}
	return err
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
