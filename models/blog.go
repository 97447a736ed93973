package models

import "time"

type Blog struct {
	ID          int64      `json:"blog_id"`
	Title       string     `json:"title"`
	Content     string     `json:"content"`
	AuthorID    string     `json:"author_id"`
	AuthorName  string     `json:"author_name"`
	ImageURL    *string    `json:"image_url"`
	IsPublished bool       `json:"is_published"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at"`
}

type BlogRequest struct {
	Title       string  `json:"title" binding:"required,max=200"`
	Content     string  `json:"content" binding:"required"`
	ImageURL    *string `json:"image_url"`
	IsPublished *bool   `json:"is_published"`
}
