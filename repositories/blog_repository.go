package repositories

import (
	"context"
	"time"

	"parampara-foods/models"
)

const blogSelect = `
	SELECT b.blog_id, b.title, b.content, b.author_id, COALESCE(NULLIF(u.full_name, ''), u.email, ''),
		b.image_url, b.is_published, b.created_at, b.updated_at
	FROM blogs b
	LEFT JOIN users u ON u.id = b.author_id`

type BlogRepository struct {
	db DBTX
}

func NewBlogRepository(db DBTX) *BlogRepository {
	return &BlogRepository{db: db}
}

func scanBlog(row rowScanner) (*models.Blog, error) {
	var b models.Blog
	err := row.Scan(&b.ID, &b.Title, &b.Content, &b.AuthorID, &b.AuthorName,
		&b.ImageURL, &b.IsPublished, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *BlogRepository) ListPublished(ctx context.Context) ([]models.Blog, error) {
	rows, err := r.db.QueryContext(ctx, blogSelect+` WHERE b.is_published = TRUE ORDER BY b.created_at DESC, b.blog_id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	blogs := []models.Blog{}
	for rows.Next() {
		b, err := scanBlog(rows)
		if err != nil {
			return nil, err
		}
		blogs = append(blogs, *b)
	}
	return blogs, rows.Err()
}

// GetByID returns the blog regardless of its published flag.
func (r *BlogRepository) GetByID(ctx context.Context, id int64) (*models.Blog, error) {
	b, err := scanBlog(r.db.QueryRowContext(ctx, blogSelect+` WHERE b.blog_id = ?`, id))
	if err != nil {
		return nil, notFoundIfNoRows(err)
	}
	return b, nil
}

func (r *BlogRepository) Create(ctx context.Context, b *models.Blog) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO blogs (title, content, author_id, image_url, is_published, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		b.Title, b.Content, b.AuthorID, b.ImageURL, b.IsPublished, b.CreatedAt)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *BlogRepository) Update(ctx context.Context, b *models.Blog) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE blogs SET title = ?, content = ?, image_url = ?, is_published = ?, updated_at = ?
		WHERE blog_id = ?`,
		b.Title, b.Content, b.ImageURL, b.IsPublished, time.Now().UTC(), b.ID)
	return err
}

func (r *BlogRepository) Unpublish(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `UPDATE blogs SET is_published = FALSE, updated_at = ? WHERE blog_id = ?`,
		time.Now().UTC(), id)
	return err
}
