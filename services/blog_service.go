package services

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"parampara-foods/apperror"
	"parampara-foods/models"
	"parampara-foods/repositories"
)

type BlogService struct {
	blogs *repositories.BlogRepository
	now   func() time.Time
}

func NewBlogService(db *sql.DB) *BlogService {
	return &BlogService{
		blogs: repositories.NewBlogRepository(db),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (s *BlogService) ListBlogs(ctx context.Context) ([]models.Blog, error) {
	blogs, err := s.blogs.ListPublished(ctx)
	if err != nil {
		return nil, apperror.Wrap(err, "Failed to list blogs")
	}
	return blogs, nil
}

func (s *BlogService) GetBlog(ctx context.Context, id int64) (*models.Blog, error) {
	blog, err := s.blogs.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "Blog not found")
	}
	if !blog.IsPublished {
		return nil, apperror.NotFound("Blog not found")
	}
	return blog, nil
}

func validateBlog(req models.BlogRequest) error {
	if strings.TrimSpace(req.Title) == "" {
		return apperror.Validation("Title is required")
	}
	if strings.TrimSpace(req.Content) == "" {
		return apperror.Validation("Content is required")
	}
	return nil
}

func (s *BlogService) CreateBlog(ctx context.Context, authorID string, req models.BlogRequest) (*models.Blog, error) {
	if err := validateBlog(req); err != nil {
		return nil, err
	}

	blog := &models.Blog{
		Title:       strings.TrimSpace(req.Title),
		Content:     req.Content,
		AuthorID:    authorID,
		ImageURL:    req.ImageURL,
		IsPublished: true,
		CreatedAt:   s.now(),
	}
	if req.IsPublished != nil {
		blog.IsPublished = *req.IsPublished
	}

	id, err := s.blogs.Create(ctx, blog)
	if err != nil {
		return nil, apperror.Wrap(err, "Failed to create blog")
	}
	blog.ID = id
	return blog, nil
}

func (s *BlogService) UpdateBlog(ctx context.Context, id int64, req models.BlogRequest) (*models.Blog, error) {
	if err := validateBlog(req); err != nil {
		return nil, err
	}
	blog, err := s.blogs.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "Blog not found")
	}

	blog.Title = strings.TrimSpace(req.Title)
	blog.Content = req.Content
	blog.ImageURL = req.ImageURL
	if req.IsPublished != nil {
		blog.IsPublished = *req.IsPublished
	}
	if err := s.blogs.Update(ctx, blog); err != nil {
		return nil, apperror.Wrap(err, "Failed to update blog")
	}
	now := s.now()
	blog.UpdatedAt = &now
	return blog, nil
}

// DeleteBlog unpublishes the post; the row is kept.
func (s *BlogService) DeleteBlog(ctx context.Context, id int64) error {
	if _, err := s.blogs.GetByID(ctx, id); err != nil {
		return notFoundOr(err, "Blog not found")
	}
	if err := s.blogs.Unpublish(ctx, id); err != nil {
		return apperror.Wrap(err, "Failed to delete blog")
	}
	return nil
}
