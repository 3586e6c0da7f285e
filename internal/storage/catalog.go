package storage

import (
	"context"
	"database/sql"
	"strings"
)

// --- Products ---

const productColumns = `id, name, brand, description, category, price, stock`

func scanProduct(sc interface{ Scan(...any) error }) (Product, error) {
	var p Product
	err := sc.Scan(&p.ID, &p.Name, &p.Brand, &p.Description, &p.Category, &p.Price, &p.Stock)
	return p, err
}

func (s *Store) GetProduct(ctx context.Context, id int64) (Product, error) {
	p, err := scanProduct(s.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return Product{}, ErrNotFound
	}
	return p, err
}

func (s *Store) SaveProduct(ctx context.Context, p Product) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO products (`+productColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, brand = excluded.brand, description = excluded.description,
			category = excluded.category, price = excluded.price, stock = excluded.stock`,
		p.ID, p.Name, p.Brand, p.Description, p.Category, p.Price, p.Stock)
	return err
}

// productWhere builds the WHERE clause for f. Text matches are
// case-insensitive substring matches over name and description.
func productWhere(f ProductFilter, withQuery bool) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if withQuery && f.Query != "" {
		conds = append(conds, `(name LIKE ? ESCAPE '\' OR description LIKE ? ESCAPE '\')`)
		term := likeTerm(f.Query)
		args = append(args, term, term)
	}
	if f.Brand != "" {
		conds = append(conds, `(brand = ? COLLATE NOCASE OR name LIKE ? ESCAPE '\')`)
		args = append(args, f.Brand, likeTerm(f.Brand))
	}
	if f.Category != "" {
		conds = append(conds, `category = ? COLLATE NOCASE`)
		args = append(args, f.Category)
	}
	if f.MinPrice != nil {
		conds = append(conds, `price >= ?`)
		args = append(args, *f.MinPrice)
	}
	if f.MaxPrice != nil {
		conds = append(conds, `price <= ?`)
		args = append(args, *f.MaxPrice)
	}
	if f.InStock != nil {
		if *f.InStock {
			conds = append(conds, `stock > 0`)
		} else {
			conds = append(conds, `stock = 0`)
		}
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func likeTerm(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}

// SearchProducts returns one page of matching products ordered by name and
// the total number of matches. When the free-text query is the only reason
// nothing matches, it is dropped and the remaining filters are used;
// queryDropped reports that case.
func (s *Store) SearchProducts(ctx context.Context, f ProductFilter) (items []Product, total int, queryDropped bool, err error) {
	where, args := productWhere(f, true)
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`+where, args...).Scan(&total); err != nil {
		return nil, 0, false, err
	}
	if total == 0 && f.Query != "" {
		where, args = productWhere(f, false)
		if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`+where, args...).Scan(&total); err != nil {
			return nil, 0, false, err
		}
		queryDropped = total > 0
	}
	if total == 0 {
		return nil, 0, queryDropped, nil
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+productColumns+` FROM products`+where+` ORDER BY name ASC LIMIT ? OFFSET ?`,
		append(args, limit, f.Offset)...)
	if err != nil {
		return nil, 0, false, err
	}
	defer rows.Close()
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, false, err
		}
		items = append(items, p)
	}
	return items, total, queryDropped, rows.Err()
}
