package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"parampara-foods/models"
	"parampara-foods/services"
)

type FeedbackController struct {
	feedback *services.FeedbackService
}

func NewFeedbackController(feedback *services.FeedbackService) *FeedbackController {
	return &FeedbackController{feedback: feedback}
}

// ListFeedback handles GET /feedback?foodId=.
func (ctl *FeedbackController) ListFeedback(c *gin.Context) {
	foodID, ok := optionalInt64Query(c, "foodId")
	if !ok {
		return
	}
	feedback, err := ctl.feedback.ListFeedback(c.Request.Context(), foodID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, feedback)
}

func (ctl *FeedbackController) CreateFeedback(c *gin.Context) {
	var req models.CreateFeedbackRequest
	if !bindJSON(c, &req) {
		return
	}
	fb, err := ctl.feedback.CreateFeedback(c.Request.Context(), callerFrom(c).UserID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, fb)
}

func (ctl *FeedbackController) AverageRating(c *gin.Context) {
	foodID, ok := optionalInt64Query(c, "foodId")
	if !ok {
		return
	}
	resp, err := ctl.feedback.AverageRating(c.Request.Context(), foodID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

type BlogController struct {
	blogs *services.BlogService
}

func NewBlogController(blogs *services.BlogService) *BlogController {
	return &BlogController{blogs: blogs}
}

func (ctl *BlogController) ListBlogs(c *gin.Context) {
	blogs, err := ctl.blogs.ListBlogs(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, blogs)
}

func (ctl *BlogController) GetBlog(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	blog, err := ctl.blogs.GetBlog(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, blog)
}

func (ctl *BlogController) CreateBlog(c *gin.Context) {
	var req models.BlogRequest
	if !bindJSON(c, &req) {
		return
	}
	blog, err := ctl.blogs.CreateBlog(c.Request.Context(), callerFrom(c).UserID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, blog)
}

func (ctl *BlogController) UpdateBlog(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req models.BlogRequest
	if !bindJSON(c, &req) {
		return
	}
	blog, err := ctl.blogs.UpdateBlog(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, blog)
}

func (ctl *BlogController) DeleteBlog(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := ctl.blogs.DeleteBlog(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
