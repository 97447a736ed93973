package services

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parampara-foods/apperror"
	"parampara-foods/models"
)

func TestCreateFeedback_RefreshesFoodRating(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewFeedbackService(db)
	svc.now = func() time.Time { return fixedNow }
	food := int64(3)

	expectUser(mock, "u-1")
	mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM food_items`).WithArgs(food).
		WillReturnRows(sqlmock.NewRows([]string{"e"}).AddRow(true))
	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO feedback`).WithArgs("u-1", 4, "Lovely", food, fixedNow).
		WillReturnResult(sqlmock.NewResult(8, 1))
	mock.ExpectExec(`SET rating = COALESCE`).WithArgs(food, food, food).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	fb, err := svc.CreateFeedback(context.Background(), "u-1", models.CreateFeedbackRequest{
		Rating: 4, Comment: strp("Lovely"), FoodID: &food,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(8), fb.ID)
	assert.Equal(t, "Asha", fb.UserName)
}

func TestCreateFeedback_GeneralFeedbackSkipsAggregate(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewFeedbackService(db)

	expectUser(mock, "u-1")
	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO feedback`).WillReturnResult(sqlmock.NewResult(9, 1))
	mock.ExpectCommit()

	_, err := svc.CreateFeedback(context.Background(), "u-1", models.CreateFeedbackRequest{Rating: 5})
	require.NoError(t, err)
}

func TestCreateFeedback_Validation(t *testing.T) {
	for _, rating := range []int{0, 6, -1} {
		db, mock := newMockDB(t)
		svc := NewFeedbackService(db)
		expectUser(mock, "u-1")

		_, err := svc.CreateFeedback(context.Background(), "u-1", models.CreateFeedbackRequest{Rating: rating})
		assert.True(t, apperror.Is(err, apperror.KindValidation), "rating %d", rating)
	}

	db, mock := newMockDB(t)
	svc := NewFeedbackService(db)
	expectUser(mock, "u-1")
	mock.ExpectQuery(`SELECT EXISTS`).WillReturnRows(sqlmock.NewRows([]string{"e"}).AddRow(false))
	food := int64(99)
	_, err := svc.CreateFeedback(context.Background(), "u-1", models.CreateFeedbackRequest{Rating: 3, FoodID: &food})
	assert.Equal(t, "Invalid food ID", apperror.PublicMessage(err))
}

func TestCreateFeedback_UnknownUser(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewFeedbackService(db)
	mock.ExpectQuery(`FROM users u`).WillReturnRows(sqlmock.NewRows(userCols))

	_, err := svc.CreateFeedback(context.Background(), "ghost", models.CreateFeedbackRequest{Rating: 3})
	assert.True(t, apperror.Is(err, apperror.KindUnauthorized))
}

func TestAverageRating(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewFeedbackService(db)
	mock.ExpectQuery(`SELECT AVG\(rating\) FROM feedback`).
		WillReturnRows(sqlmock.NewRows([]string{"avg"}).AddRow("3.6667"))

	resp, err := svc.AverageRating(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "3.67", resp.AverageRating.String())
	assert.Nil(t, resp.FoodID)
}

func TestBlogService(t *testing.T) {
	blogCols := []string{"blog_id", "title", "content", "author_id", "author", "image_url", "is_published", "created_at", "updated_at"}

	t.Run("unpublished is hidden", func(t *testing.T) {
		db, mock := newMockDB(t)
		svc := NewBlogService(db)
		mock.ExpectQuery(`FROM blogs b`).WithArgs(int64(2)).
			WillReturnRows(sqlmock.NewRows(blogCols).AddRow(2, "Millets", "...", "u-1", "Asha", nil, false, fixedNow, nil))

		_, err := svc.GetBlog(context.Background(), 2)
		assert.True(t, apperror.Is(err, apperror.KindNotFound))
	})

	t.Run("delete unpublishes", func(t *testing.T) {
		db, mock := newMockDB(t)
		svc := NewBlogService(db)
		mock.ExpectQuery(`FROM blogs b`).WithArgs(int64(2)).
			WillReturnRows(sqlmock.NewRows(blogCols).AddRow(2, "Millets", "...", "u-1", "Asha", nil, true, fixedNow, nil))
		mock.ExpectExec(`UPDATE blogs SET is_published = FALSE`).WithArgs(sqlmock.AnyArg(), int64(2)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, svc.DeleteBlog(context.Background(), 2))
	})

	t.Run("create defaults to published", func(t *testing.T) {
		db, mock := newMockDB(t)
		svc := NewBlogService(db)
		svc.now = func() time.Time { return fixedNow }
		mock.ExpectExec(`INSERT INTO blogs`).WithArgs("Millets", "Body", "u-1", nil, true, fixedNow).
			WillReturnResult(sqlmock.NewResult(3, 1))

		blog, err := svc.CreateBlog(context.Background(), "u-1", models.BlogRequest{Title: "Millets", Content: "Body"})
		require.NoError(t, err)
		assert.Equal(t, int64(3), blog.ID)
		assert.True(t, blog.IsPublished)
	})

	t.Run("create requires content", func(t *testing.T) {
		db, _ := newMockDB(t)
		_, err := NewBlogService(db).CreateBlog(context.Background(), "u-1", models.BlogRequest{Title: "x", Content: " "})
		assert.True(t, apperror.Is(err, apperror.KindValidation))
	})
}
