package services

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/clamor-dev/clamor/internal/events"
	"github.com/clamor-dev/clamor/internal/models"
	"github.com/clamor-dev/clamor/internal/types"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testDBCounter atomic.Int64

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:services%d?mode=memory&cache=shared", testDBCounter.Add(1))

	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, gdb.AutoMigrate(
		&models.User{},
		&models.Project{},
		&models.ProjectMembership{},
		&models.Feedback{},
		&models.Vote{},
		&models.Comment{},
		&models.FeedbackMerge{},
	))

	return gdb
}

func newTestUser(t *testing.T, gdb *gorm.DB, email string) *models.User {
	t.Helper()

	user := models.User{Name: "Test User", Email: email, PasswordHash: "x"}
	require.NoError(t, gdb.Create(&user).Error)

	return &user
}

func newTestProject(t *testing.T, gdb *gorm.DB, tier string) *models.Project {
	t.Helper()

	owner := newTestUser(t, gdb, fmt.Sprintf("owner-%s@example.com", uuid.NewString()))

	project := models.Project{
		Name:                "Test Project",
		OwnerID:             owner.ID,
		Tier:                tier,
		APIKey:              uuid.NewString(),
		AllowedStatuses:     models.StringListColumn(types.AllStatuses),
		EmailNotifyStatuses: models.StringListColumn(types.AllStatuses),
	}
	require.NoError(t, gdb.Create(&project).Error)

	return &project
}

func newTestFeedback(t *testing.T, gdb *gorm.DB, project *models.Project, title string) *models.Feedback {
	t.Helper()

	feedback := models.Feedback{
		ProjectID: project.ID,
		Title:     title,
		Status:    types.StatusPending,
		AuthorID:  "author-" + uuid.NewString(),
	}
	require.NoError(t, gdb.Create(&feedback).Error)

	return &feedback
}

func addVote(t *testing.T, gdb *gorm.DB, feedback *models.Feedback, userID string) *models.Vote {
	t.Helper()

	vote := models.Vote{FeedbackID: feedback.ID, UserID: userID}
	require.NoError(t, gdb.Create(&vote).Error)
	require.NoError(t, gdb.Model(&models.Feedback{}).
		Where("id = ?", feedback.ID).
		UpdateColumn("vote_count", gorm.Expr("vote_count + 1")).Error)

	return &vote
}

// captureEvents swaps in a synchronous dispatcher and records every
// emission for the duration of the test.
func captureEvents(t *testing.T) *[]events.Event {
	t.Helper()

	previous := events.Default
	dispatcher := events.NewSyncDispatcher()

	var captured []events.Event

	dispatcher.Subscribe(func(e events.Event) {
		captured = append(captured, e)
	})

	events.Default = dispatcher

	t.Cleanup(func() {
		events.Default = previous
	})

	return &captured
}

func voteRowCount(t *testing.T, gdb *gorm.DB, feedbackID uint) int64 {
	t.Helper()

	var count int64
	require.NoError(t, gdb.Model(&models.Vote{}).Where("feedback_id = ?", feedbackID).Count(&count).Error)

	return count
}

func reloadFeedback(t *testing.T, gdb *gorm.DB, id uint) *models.Feedback {
	t.Helper()

	var feedback models.Feedback
	require.NoError(t, gdb.First(&feedback, id).Error)

	return &feedback
}
