package repository

import (
	"context"
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/floracrm/flowershop-backend/internal/model"
)

const customerColumns = `id, shop_id, first_name, last_name, email, phone, vip, birthday, total_spent_cents, last_order_at, created_at`

type CustomerRepositoryInterface interface {
	GetByID(ctx context.Context, shopID, id int64) (*model.Customer, error)
	ListByShop(ctx context.Context, shopID int64) ([]model.Customer, error)
	ListByIDs(ctx context.Context, shopID int64, ids []int64) ([]model.Customer, error)
	ListFiltered(ctx context.Context, shopID int64, vipOnly bool, search string, offset, limit int) ([]model.Customer, int, error)
	Create(ctx context.Context, c *model.Customer) error
	Update(ctx context.Context, c *model.Customer) error
	Delete(ctx context.Context, shopID, id int64) error

	// Predefined-segment queries. Each is a pure read scoped to one shop.
	ListNew(ctx context.Context, shopID int64, since time.Time) ([]model.Customer, error)
	ListVIP(ctx context.Context, shopID int64) ([]model.Customer, error)
	ListHighSpenders(ctx context.Context, shopID int64, minCents int64) ([]model.Customer, error)
	ListBirthdayMonth(ctx context.Context, shopID int64, month time.Month) ([]model.Customer, error)
	ListInactive(ctx context.Context, shopID int64, cutoff time.Time) ([]model.Customer, error)
}

type CustomerRepository struct {
	DB *sql.DB
}

func scanCustomer(row interface{ Scan(...any) error }) (*model.Customer, error) {
	var c model.Customer
	err := row.Scan(
		&c.ID, &c.ShopID, &c.FirstName, &c.LastName, &c.Email, &c.Phone,
		&c.VIP, &c.Birthday, &c.TotalSpentCents, &c.LastOrderAt, &c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CustomerRepository) queryCustomers(ctx context.Context, query string, args ...any) ([]model.Customer, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	customers := []model.Customer{}
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		customers = append(customers, *c)
	}
	return customers, rows.Err()
}

func (r *CustomerRepository) GetByID(ctx context.Context, shopID, id int64) (*model.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE shop_id=$1 AND id=$2`
	c, err := scanCustomer(r.DB.QueryRowContext(ctx, query, shopID, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // not found
		}
		return nil, err
	}
	return c, nil
}

func (r *CustomerRepository) ListByShop(ctx context.Context, shopID int64) ([]model.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE shop_id=$1 ORDER BY id`
	return r.queryCustomers(ctx, query, shopID)
}

// ListByIDs fetches the given customers, silently dropping ids that no longer
// exist or belong to another shop.
func (r *CustomerRepository) ListByIDs(ctx context.Context, shopID int64, ids []int64) ([]model.Customer, error) {
	if len(ids) == 0 {
		return []model.Customer{}, nil
	}
	query := `SELECT ` + customerColumns + ` FROM customers WHERE shop_id=$1 AND id = ANY($2) ORDER BY id`
	return r.queryCustomers(ctx, query, shopID, pq.Array(ids))
}

// ListFiltered supports the CRM list view: optional vip filter and name/email
// search, paginated.
func (r *CustomerRepository) ListFiltered(ctx context.Context, shopID int64, vipOnly bool, search string, offset, limit int) ([]model.Customer, int, error) {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

	base := psql.Select(customerColumns).From("customers").Where(sq.Eq{"shop_id": shopID})
	count := psql.Select("COUNT(*)").From("customers").Where(sq.Eq{"shop_id": shopID})

	if vipOnly {
		base = base.Where(sq.Eq{"vip": true})
		count = count.Where(sq.Eq{"vip": true})
	}
	if search != "" {
		like := "%" + search + "%"
		cond := sq.Or{
			sq.ILike{"first_name": like},
			sq.ILike{"last_name": like},
			sq.ILike{"email": like},
		}
		base = base.Where(cond)
		count = count.Where(cond)
	}

	query, args, err := base.OrderBy("id").Limit(uint64(limit)).Offset(uint64(offset)).ToSql()
	if err != nil {
		return nil, 0, err
	}
	customers, err := r.queryCustomers(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}

	countQuery, countArgs, err := count.ToSql()
	if err != nil {
		return nil, 0, err
	}
	var total int
	if err := r.DB.QueryRowContext(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}
	return customers, total, nil
}

func (r *CustomerRepository) Create(ctx context.Context, c *model.Customer) error {
	c.CreatedAt = time.Now()
	query := `
        INSERT INTO customers (shop_id, first_name, last_name, email, phone, vip, birthday, total_spent_cents, last_order_at, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
        RETURNING id
    `
	return r.DB.QueryRowContext(ctx, query,
		c.ShopID, c.FirstName, c.LastName, c.Email, c.Phone, c.VIP,
		c.Birthday, c.TotalSpentCents, c.LastOrderAt, c.CreatedAt,
	).Scan(&c.ID)
}

func (r *CustomerRepository) Update(ctx context.Context, c *model.Customer) error {
	query := `
        UPDATE customers
        SET first_name=$1, last_name=$2, email=$3, phone=$4, vip=$5, birthday=$6, total_spent_cents=$7, last_order_at=$8
        WHERE shop_id=$9 AND id=$10
    `
	_, err := r.DB.ExecContext(ctx, query,
		c.FirstName, c.LastName, c.Email, c.Phone, c.VIP, c.Birthday,
		c.TotalSpentCents, c.LastOrderAt, c.ShopID, c.ID,
	)
	return err
}

func (r *CustomerRepository) Delete(ctx context.Context, shopID, id int64) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM customers WHERE shop_id=$1 AND id=$2`, shopID, id)
	return err
}

// ====================== Predefined segments ======================

func (r *CustomerRepository) ListNew(ctx context.Context, shopID int64, since time.Time) ([]model.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE shop_id=$1 AND created_at >= $2 ORDER BY id`
	return r.queryCustomers(ctx, query, shopID, since)
}

func (r *CustomerRepository) ListVIP(ctx context.Context, shopID int64) ([]model.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE shop_id=$1 AND vip ORDER BY id`
	return r.queryCustomers(ctx, query, shopID)
}

func (r *CustomerRepository) ListHighSpenders(ctx context.Context, shopID int64, minCents int64) ([]model.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE shop_id=$1 AND total_spent_cents >= $2 ORDER BY id`
	return r.queryCustomers(ctx, query, shopID, minCents)
}

func (r *CustomerRepository) ListBirthdayMonth(ctx context.Context, shopID int64, month time.Month) ([]model.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE shop_id=$1 AND birthday IS NOT NULL AND EXTRACT(MONTH FROM birthday) = $2 ORDER BY id`
	return r.queryCustomers(ctx, query, shopID, int(month))
}

func (r *CustomerRepository) ListInactive(ctx context.Context, shopID int64, cutoff time.Time) ([]model.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE shop_id=$1 AND (last_order_at IS NULL OR last_order_at < $2) ORDER BY id`
	return r.queryCustomers(ctx, query, shopID, cutoff)
}

var _ CustomerRepositoryInterface = (*CustomerRepository)(nil)
