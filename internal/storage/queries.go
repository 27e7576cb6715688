package storage

import (
	"context"
	"database/sql"
	"strings"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

// Queries holds one method per SQL statement.
type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

type (
	TenantRow struct {
		ID        string
		Name      string
		Phone     string
		Email     string
		Status    string
		Category  string
		CreatedAt string
		UpdatedAt string
	}

	UserRow struct {
		ID           string
		Email        string
		PasswordHash string
		Role         string
		TenantID     sql.NullString
		CreatedAt    string
	}

	RecordRow struct {
		ID            string
		Month         int64
		Year          int64
		CollectorName string
		GrandTotal    float64
		CreatedBy     string
		CreatedAt     string
	}

	PaymentRow struct {
		ID         string
		RecordID   string
		TenantID   string
		TenantName sql.NullString
		Amount     float64
		Status     string
		Position   int64
	}

	ParticularRow struct {
		ID          string
		RecordID    string
		ItemName    string
		Price       float64
		Type        string
		Description string
		ReceiptURL  string
		Position    int64
	}
)

const tenantColumns = `id, name, phone, email, status, category, created_at, updated_at`

func scanTenant(row interface{ Scan(...any) error }) (TenantRow, error) {
	var t TenantRow
	err := row.Scan(&t.ID, &t.Name, &t.Phone, &t.Email, &t.Status, &t.Category, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

const createTenant = `INSERT INTO tenants (` + tenantColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) CreateTenant(ctx context.Context, t TenantRow) error {
	_, err := q.db.ExecContext(ctx, createTenant,
		t.ID, t.Name, t.Phone, t.Email, t.Status, t.Category, t.CreatedAt, t.UpdatedAt)
	return err
}

const updateTenant = `UPDATE tenants
SET name = ?, phone = ?, email = ?, status = ?, category = ?, updated_at = ?
WHERE id = ?`

func (q *Queries) UpdateTenant(ctx context.Context, t TenantRow) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateTenant,
		t.Name, t.Phone, t.Email, t.Status, t.Category, t.UpdatedAt, t.ID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const setTenantStatus = `UPDATE tenants SET status = ?, updated_at = ? WHERE id = ?`

func (q *Queries) SetTenantStatus(ctx context.Context, id, status, updatedAt string) (int64, error) {
	res, err := q.db.ExecContext(ctx, setTenantStatus, status, updatedAt, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const setTenantEmail = `UPDATE tenants SET email = ?, updated_at = ? WHERE id = ?`

func (q *Queries) SetTenantEmail(ctx context.Context, id, email, updatedAt string) (int64, error) {
	res, err := q.db.ExecContext(ctx, setTenantEmail, email, updatedAt, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const getTenant = `SELECT ` + tenantColumns + ` FROM tenants WHERE id = ?`

func (q *Queries) GetTenant(ctx context.Context, id string) (TenantRow, error) {
	return scanTenant(q.db.QueryRowContext(ctx, getTenant, id))
}

const listTenants = `SELECT ` + tenantColumns + ` FROM tenants
WHERE (? = '' OR status = ?)
ORDER BY name COLLATE NOCASE, id`

func (q *Queries) ListTenants(ctx context.Context, status string) ([]TenantRow, error) {
	rows, err := q.db.QueryContext(ctx, listTenants, status, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []TenantRow
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	return items, rows.Err()
}

const countActiveTenants = `SELECT COUNT(*) FROM tenants
WHERE status = 'active' AND category = 'tenant' AND id != ?`

// CountActiveTenants counts active tenant-category rows other than excludeID.
func (q *Queries) CountActiveTenants(ctx context.Context, excludeID string) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countActiveTenants, excludeID).Scan(&n)
	return n, err
}

const createUser = `INSERT INTO users (id, email, password_hash, role, tenant_id, created_at)
VALUES (?, ?, ?, ?, ?, ?)`

func (q *Queries) CreateUser(ctx context.Context, u UserRow) error {
	_, err := q.db.ExecContext(ctx, createUser, u.ID, u.Email, u.PasswordHash, u.Role, u.TenantID, u.CreatedAt)
	return err
}

const createFirstUser = `INSERT INTO users (id, email, password_hash, role, tenant_id, created_at)
SELECT ?, ?, ?, ?, ?, ? WHERE NOT EXISTS (SELECT 1 FROM users)`

// CreateFirstUser inserts u only into an empty users table and reports
// whether it did.
func (q *Queries) CreateFirstUser(ctx context.Context, u UserRow) (bool, error) {
	res, err := q.db.ExecContext(ctx, createFirstUser, u.ID, u.Email, u.PasswordHash, u.Role, u.TenantID, u.CreatedAt)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

const userColumns = `id, email, password_hash, role, tenant_id, created_at`

func scanUser(row interface{ Scan(...any) error }) (UserRow, error) {
	var u UserRow
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.TenantID, &u.CreatedAt)
	return u, err
}

const getUser = `SELECT ` + userColumns + ` FROM users WHERE id = ?`

func (q *Queries) GetUser(ctx context.Context, id string) (UserRow, error) {
	return scanUser(q.db.QueryRowContext(ctx, getUser, id))
}

const getUserByEmail = `SELECT ` + userColumns + ` FROM users WHERE email = ? COLLATE NOCASE`

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (UserRow, error) {
	return scanUser(q.db.QueryRowContext(ctx, getUserByEmail, email))
}

const countUsers = `SELECT COUNT(*) FROM users`

func (q *Queries) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countUsers).Scan(&n)
	return n, err
}

const createRecord = `INSERT INTO maintenance_records (id, month, year, collector_name, grand_total, created_by, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) CreateRecord(ctx context.Context, r RecordRow) error {
	_, err := q.db.ExecContext(ctx, createRecord,
		r.ID, r.Month, r.Year, r.CollectorName, r.GrandTotal, r.CreatedBy, r.CreatedAt)
	return err
}

const createPayment = `INSERT INTO tenant_payments (id, record_id, tenant_id, amount, status, position)
VALUES (?, ?, ?, ?, ?, ?)`

func (q *Queries) CreatePayment(ctx context.Context, p PaymentRow) error {
	_, err := q.db.ExecContext(ctx, createPayment, p.ID, p.RecordID, p.TenantID, p.Amount, p.Status, p.Position)
	return err
}

const createParticular = `INSERT INTO particulars (id, record_id, item_name, price, type, description, receipt_url, position)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) CreateParticular(ctx context.Context, p ParticularRow) error {
	_, err := q.db.ExecContext(ctx, createParticular,
		p.ID, p.RecordID, p.ItemName, p.Price, p.Type, p.Description, p.ReceiptURL, p.Position)
	return err
}

const recordColumns = `id, month, year, collector_name, grand_total, created_by, created_at`

func scanRecord(row interface{ Scan(...any) error }) (RecordRow, error) {
	var r RecordRow
	err := row.Scan(&r.ID, &r.Month, &r.Year, &r.CollectorName, &r.GrandTotal, &r.CreatedBy, &r.CreatedAt)
	return r, err
}

const getRecord = `SELECT ` + recordColumns + ` FROM maintenance_records WHERE id = ?`

func (q *Queries) GetRecord(ctx context.Context, id string) (RecordRow, error) {
	return scanRecord(q.db.QueryRowContext(ctx, getRecord, id))
}

const listRecords = `SELECT ` + recordColumns + ` FROM maintenance_records
WHERE (? = 0 OR year = ?)
ORDER BY year DESC, month DESC, created_at DESC
LIMIT ?`

// ListRecords returns records newest first. A limit below 1 means no limit.
func (q *Queries) ListRecords(ctx context.Context, year int64, limit int64) ([]RecordRow, error) {
	if limit < 1 {
		limit = -1
	}
	rows, err := q.db.QueryContext(ctx, listRecords, year, year, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []RecordRow
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}

const listPaymentsForRecords = `SELECT p.id, p.record_id, p.tenant_id, t.name, p.amount, p.status, p.position
FROM tenant_payments p
LEFT JOIN tenants t ON t.id = p.tenant_id
WHERE p.record_id IN (/*IDS*/)
ORDER BY p.record_id, p.position`

func (q *Queries) ListPaymentsForRecords(ctx context.Context, recordIDs []string) ([]PaymentRow, error) {
	if len(recordIDs) == 0 {
		return nil, nil
	}
	query, args := expandIn(listPaymentsForRecords, recordIDs)
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []PaymentRow
	for rows.Next() {
		var p PaymentRow
		if err := rows.Scan(&p.ID, &p.RecordID, &p.TenantID, &p.TenantName, &p.Amount, &p.Status, &p.Position); err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

const listParticularsForRecords = `SELECT id, record_id, item_name, price, type, description, receipt_url, position
FROM particulars
WHERE record_id IN (/*IDS*/)
ORDER BY record_id, position`

func (q *Queries) ListParticularsForRecords(ctx context.Context, recordIDs []string) ([]ParticularRow, error) {
	if len(recordIDs) == 0 {
		return nil, nil
	}
	query, args := expandIn(listParticularsForRecords, recordIDs)
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []ParticularRow
	for rows.Next() {
		var p ParticularRow
		if err := rows.Scan(&p.ID, &p.RecordID, &p.ItemName, &p.Price, &p.Type, &p.Description, &p.ReceiptURL, &p.Position); err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

// expandIn replaces the /*IDS*/ marker with one placeholder per id.
func expandIn(query string, ids []string) (string, []any) {
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return strings.Replace(query, "/*IDS*/", placeholders, 1), args
}
