package store

import (
	"errors"
	"fmt"

	"github.com/stride-dev/stride/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// MaxTaskLength bounds task content; the decomposition service is instructed
// to stay short, but the store enforces it.
const MaxTaskLength = 100

type GoalStore struct {
	db *gorm.DB
}

func NewGoalStore(db *gorm.DB) *GoalStore {
	return &GoalStore{db: db}
}

// CreateGoalWithTasks persists a goal and its decomposed tasks in one
// transaction: either the goal row and every task row are committed together,
// or none are. Every task is created incomplete and owned by ownerID, which
// keeps the single-owner-per-goal invariant.
func (s *GoalStore) CreateGoalWithTasks(ownerID uint, name string, taskTexts []string, raw datatypes.JSON) (*models.Goal, error) {
	var goal models.Goal

	err := s.db.Transaction(func(tx *gorm.DB) error {
		goal = models.Goal{Name: name, Raw: raw}

		if err := tx.Create(&goal).Error; err != nil {
			return fmt.Errorf("failed to create goal: %w", err)
		}

		for _, text := range taskTexts {
			if text == "" || len(text) > MaxTaskLength {
				return fmt.Errorf("invalid task content %q", text)
			}

			task := models.Task{
				Content:    text,
				IsComplete: false,
				UserID:     ownerID,
				GoalID:     goal.ID,
			}

			if err := tx.Create(&task).Error; err != nil {
				return fmt.Errorf("failed to create task: %w", err)
			}

			goal.Tasks = append(goal.Tasks, task)
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	return &goal, nil
}

// ListForUser returns the user's goals with their tasks, both in creation
// order. A goal belongs to the user when its tasks do; goals whose
// decomposition produced no tasks have no derivable owner and are not listed.
func (s *GoalStore) ListForUser(ownerID uint) ([]models.Goal, error) {
	owned := s.db.Model(&models.Task{}).
		Select("goal_id").
		Where("user_id = ?", ownerID)

	var goals []models.Goal

	err := s.db.
		Preload("Tasks", func(tx *gorm.DB) *gorm.DB {
			return tx.Where("user_id = ?", ownerID).Order("tasks.id ASC")
		}).
		Where("id IN (?)", owned).
		Order("goals.id ASC").
		Find(&goals).Error

	if err != nil {
		return nil, fmt.Errorf("failed to list goals: %w", err)
	}

	return goals, nil
}

// ToggleTask flips the completion flag of one of the user's tasks and
// returns the updated row. Tasks owned by other users are indistinguishable
// from missing ones.
func (s *GoalStore) ToggleTask(ownerID, taskID uint) (*models.Task, error) {
	var task models.Task

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND user_id = ?", taskID, ownerID).First(&task).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("failed to find task: %w", err)
		}

		task.IsComplete = !task.IsComplete

		if err := tx.Model(&task).Update("is_complete", task.IsComplete).Error; err != nil {
			return fmt.Errorf("failed to update task: %w", err)
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	return &task, nil
}

// DeleteGoalCascade removes a goal and all of its tasks atomically. The goal
// must not carry tasks owned by anyone other than ownerID; a goal with no
// tasks has no derivable owner and any authenticated user may clean it up.
func (s *GoalStore) DeleteGoalCascade(ownerID, goalID uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var goal models.Goal

		if err := tx.First(&goal, goalID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("failed to find goal: %w", err)
		}

		var foreign int64

		if err := tx.Model(&models.Task{}).
			Where("goal_id = ? AND user_id <> ?", goalID, ownerID).
			Count(&foreign).Error; err != nil {
			return fmt.Errorf("failed to check goal ownership: %w", err)
		}

		if foreign > 0 {
			return ErrNotFound
		}

		if err := tx.Where("goal_id = ?", goalID).Delete(&models.Task{}).Error; err != nil {
			return fmt.Errorf("failed to delete tasks: %w", err)
		}

		if err := tx.Delete(&goal).Error; err != nil {
			return fmt.Errorf("failed to delete goal: %w", err)
		}

		return nil
	})
}
