// Package catalog covers the marketplace listing surface: categories and the
// items users put up for trade.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrBadReference is returned when an item names a missing user or category.
var ErrBadReference = errors.New("user or category does not exist")

// Category groups items for browsing
type Category struct {
	ID   int64  `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
	Icon string `json:"icon" db:"icon"`
}

// Item is a stored listing
type Item struct {
	ID         int64     `json:"id" db:"id"`
	Title      string    `json:"title" db:"title"`
	Image      string    `json:"image" db:"image"`
	Wants      string    `json:"wants" db:"wants"`
	Distance   string    `json:"distance" db:"distance"`
	Condition  string    `json:"condition" db:"condition"`
	CategoryID int64     `json:"categoryId" db:"category_id"`
	UserID     int64     `json:"userId" db:"user_id"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
}

// ItemView is an item flattened for the grid: category name and owner display
// identity joined in.
type ItemView struct {
	Item
	Category   string `json:"category"`
	UserName   string `json:"userName"`
	UserAvatar string `json:"userAvatar"`
}

// CatalogRepo handles database operations for categories and items
type CatalogRepo struct {
	db *sql.DB
}

// NewCatalogRepo creates a new catalog repository
func NewCatalogRepo(db *sql.DB) *CatalogRepo {
	return &CatalogRepo{db: db}
}

// ListCategories returns all categories
func (r *CatalogRepo) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, icon FROM categories ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	// Initialize as empty slice so JSON encodes to [] rather than null
	categories := make([]Category, 0)
	for rows.Next() {
		var cat Category
		if err := rows.Scan(&cat.ID, &cat.Name, &cat.Icon); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, cat)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}

	return categories, nil
}

// UpsertCategory inserts a category by name or returns the existing one.
func (r *CatalogRepo) UpsertCategory(ctx context.Context, name, icon string) (*Category, error) {
	cat := &Category{Name: name, Icon: icon}
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO categories (name, icon)
		VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET icon = categories.icon
		RETURNING id, name, icon
	`, name, icon).Scan(&cat.ID, &cat.Name, &cat.Icon)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert category: %w", err)
	}
	return cat, nil
}

// ListItems returns all items newest first, with category and owner joined.
func (r *CatalogRepo) ListItems(ctx context.Context) ([]ItemView, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT i.id, i.title, i.image, i.wants, i.distance, i.condition,
		       i.category_id, i.user_id, i.created_at,
		       c.name, u.name, u.avatar
		FROM items i
		JOIN categories c ON c.id = i.category_id
		JOIN users u ON u.id = i.user_id
		ORDER BY i.created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	defer rows.Close()

	// Initialize as empty slice so JSON encodes to [] rather than null
	items := make([]ItemView, 0)
	for rows.Next() {
		var item ItemView
		err := rows.Scan(
			&item.ID, &item.Title, &item.Image, &item.Wants, &item.Distance, &item.Condition,
			&item.CategoryID, &item.UserID, &item.CreatedAt,
			&item.Category, &item.UserName, &item.UserAvatar,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, item)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating items: %w", err)
	}

	return items, nil
}

// InsertItem stores a new listing. Empty distance and condition fall back to
// the display defaults.
func (r *CatalogRepo) InsertItem(ctx context.Context, item *Item) (*Item, error) {
	if item.Distance == "" {
		item.Distance = "Calculando..."
	}
	if item.Condition == "" {
		item.Condition = "Usado"
	}

	err := r.db.QueryRowContext(ctx, `
		INSERT INTO items (title, image, wants, distance, condition, category_id, user_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`, item.Title, item.Image, item.Wants, item.Distance, item.Condition, item.CategoryID, item.UserID).
		Scan(&item.ID, &item.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert item: %w", err)
	}
	return item, nil
}
