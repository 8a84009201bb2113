package store

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stride-dev/stride/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "stride_test.db")
	conn, err := gorm.Open(sqlite.Open(path), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := conn.AutoMigrate(&models.User{}, &models.Goal{}, &models.Task{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return conn
}

func createTestUser(t *testing.T, users *UserStore, username string) *models.User {
	t.Helper()

	user, err := users.Create(username, "hashed")
	if err != nil {
		t.Fatalf("failed to create user %s: %v", username, err)
	}
	return user
}

func TestUserStoreCreateAndFind(t *testing.T) {
	conn := openTestDB(t)
	users := NewUserStore(conn)

	created := createTestUser(t, users, "alice")

	byName, err := users.FindByUsername("alice")
	if err != nil {
		t.Fatalf("FindByUsername: %v", err)
	}
	if byName.ID != created.ID {
		t.Errorf("expected ID %d, got %d", created.ID, byName.ID)
	}

	byID, err := users.FindByID(created.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if byID.Username != "alice" {
		t.Errorf("expected username alice, got %s", byID.Username)
	}

	if _, err := users.FindByUsername("nobody"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestUserStoreDuplicateUsername(t *testing.T) {
	conn := openTestDB(t)
	users := NewUserStore(conn)

	first := createTestUser(t, users, "alice")

	if _, err := users.Create("alice", "other-hash"); !errors.Is(err, ErrDuplicateUsername) {
		t.Fatalf("expected ErrDuplicateUsername, got %v", err)
	}

	// The first record must be untouched.
	unchanged, err := users.FindByUsername("alice")
	if err != nil {
		t.Fatalf("FindByUsername: %v", err)
	}
	if unchanged.ID != first.ID || unchanged.PasswordHash != "hashed" {
		t.Error("first user record was altered by the failed duplicate insert")
	}
}

func TestCreateGoalWithTasks(t *testing.T) {
	conn := openTestDB(t)
	users := NewUserStore(conn)
	goals := NewGoalStore(conn)

	user := createTestUser(t, users, "alice")
	taskTexts := []string{"Buy flour", "Buy yeast", "Knead dough"}

	goal, err := goals.CreateGoalWithTasks(user.ID, "Learn to bake bread", taskTexts, nil)
	if err != nil {
		t.Fatalf("CreateGoalWithTasks: %v", err)
	}

	if goal.Name != "Learn to bake bread" {
		t.Errorf("unexpected goal name %q", goal.Name)
	}
	if len(goal.Tasks) != 3 {
		t.Fatalf("expected 3 tasks, got %d", len(goal.Tasks))
	}
	for i, task := range goal.Tasks {
		if task.Content != taskTexts[i] {
			t.Errorf("task %d: expected %q, got %q", i, taskTexts[i], task.Content)
		}
		if task.IsComplete {
			t.Errorf("task %d: expected incomplete", i)
		}
		if task.UserID != user.ID {
			t.Errorf("task %d: expected owner %d, got %d", i, user.ID, task.UserID)
		}
		if task.GoalID != goal.ID {
			t.Errorf("task %d: expected goal %d, got %d", i, goal.ID, task.GoalID)
		}
	}
}

func TestCreateGoalWithNoTasks(t *testing.T) {
	conn := openTestDB(t)
	users := NewUserStore(conn)
	goals := NewGoalStore(conn)

	user := createTestUser(t, users, "alice")

	goal, err := goals.CreateGoalWithTasks(user.ID, "asdfghjkl", nil, nil)
	if err != nil {
		t.Fatalf("CreateGoalWithTasks: %v", err)
	}
	if len(goal.Tasks) != 0 {
		t.Errorf("expected no tasks, got %d", len(goal.Tasks))
	}

	// With no tasks there is no derivable owner, so the goal is not listed.
	listed, err := goals.ListForUser(user.ID)
	if err != nil {
		t.Fatalf("ListForUser: %v", err)
	}
	if len(listed) != 0 {
		t.Errorf("expected empty list, got %d goals", len(listed))
	}
}

func TestCreateGoalWithTasksRollsBack(t *testing.T) {
	conn := openTestDB(t)
	users := NewUserStore(conn)
	goals := NewGoalStore(conn)

	user := createTestUser(t, users, "alice")
	taskTexts := []string{"Buy flour", strings.Repeat("x", MaxTaskLength+1)}

	if _, err := goals.CreateGoalWithTasks(user.ID, "Learn to bake bread", taskTexts, nil); err == nil {
		t.Fatal("expected error for oversized task content")
	}

	var goalCount, taskCount int64
	conn.Model(&models.Goal{}).Count(&goalCount)
	conn.Model(&models.Task{}).Count(&taskCount)

	if goalCount != 0 || taskCount != 0 {
		t.Errorf("expected full rollback, found %d goals and %d tasks", goalCount, taskCount)
	}
}

func TestToggleTaskDoubleToggle(t *testing.T) {
	conn := openTestDB(t)
	users := NewUserStore(conn)
	goals := NewGoalStore(conn)

	user := createTestUser(t, users, "alice")
	goal, err := goals.CreateGoalWithTasks(user.ID, "Learn to bake bread", []string{"Buy flour"}, nil)
	if err != nil {
		t.Fatalf("CreateGoalWithTasks: %v", err)
	}
	taskID := goal.Tasks[0].ID

	toggled, err := goals.ToggleTask(user.ID, taskID)
	if err != nil {
		t.Fatalf("ToggleTask: %v", err)
	}
	if !toggled.IsComplete {
		t.Error("expected task to be complete after first toggle")
	}

	toggled, err = goals.ToggleTask(user.ID, taskID)
	if err != nil {
		t.Fatalf("ToggleTask: %v", err)
	}
	if toggled.IsComplete {
		t.Error("expected task to be incomplete after second toggle")
	}
}

func TestToggleTaskMissing(t *testing.T) {
	conn := openTestDB(t)
	goals := NewGoalStore(conn)

	if _, err := goals.ToggleTask(1, 999); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteGoalCascade(t *testing.T) {
	conn := openTestDB(t)
	users := NewUserStore(conn)
	goals := NewGoalStore(conn)

	user := createTestUser(t, users, "alice")
	goal, err := goals.CreateGoalWithTasks(user.ID, "Learn to bake bread", []string{"Buy flour", "Buy yeast"}, nil)
	if err != nil {
		t.Fatalf("CreateGoalWithTasks: %v", err)
	}

	if err := goals.DeleteGoalCascade(user.ID, goal.ID); err != nil {
		t.Fatalf("DeleteGoalCascade: %v", err)
	}

	listed, err := goals.ListForUser(user.ID)
	if err != nil {
		t.Fatalf("ListForUser: %v", err)
	}
	if len(listed) != 0 {
		t.Errorf("expected no goals after delete, got %d", len(listed))
	}

	var taskCount int64
	conn.Model(&models.Task{}).Where("goal_id = ?", goal.ID).Count(&taskCount)
	if taskCount != 0 {
		t.Errorf("expected no orphan tasks, found %d", taskCount)
	}

	if err := goals.DeleteGoalCascade(user.ID, goal.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for repeated delete, got %v", err)
	}
}

func TestOwnershipIsolation(t *testing.T) {
	conn := openTestDB(t)
	users := NewUserStore(conn)
	goals := NewGoalStore(conn)

	alice := createTestUser(t, users, "alice")
	bob := createTestUser(t, users, "bobby")

	aliceGoal, err := goals.CreateGoalWithTasks(alice.ID, "Learn to bake bread", []string{"Buy flour"}, nil)
	if err != nil {
		t.Fatalf("CreateGoalWithTasks: %v", err)
	}
	if _, err := goals.CreateGoalWithTasks(bob.ID, "Run a marathon", []string{"Buy shoes"}, nil); err != nil {
		t.Fatalf("CreateGoalWithTasks: %v", err)
	}

	// Listing is scoped per user.
	aliceGoals, err := goals.ListForUser(alice.ID)
	if err != nil {
		t.Fatalf("ListForUser: %v", err)
	}
	if len(aliceGoals) != 1 || aliceGoals[0].Name != "Learn to bake bread" {
		t.Errorf("unexpected goals for alice: %+v", aliceGoals)
	}

	// Bob cannot toggle or delete Alice's data.
	if _, err := goals.ToggleTask(bob.ID, aliceGoal.Tasks[0].ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound toggling foreign task, got %v", err)
	}
	if err := goals.DeleteGoalCascade(bob.ID, aliceGoal.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound deleting foreign goal, got %v", err)
	}

	// Alice's goal is intact.
	aliceGoals, err = goals.ListForUser(alice.ID)
	if err != nil {
		t.Fatalf("ListForUser: %v", err)
	}
	if len(aliceGoals) != 1 || len(aliceGoals[0].Tasks) != 1 {
		t.Error("alice's goal was affected by bob's attempts")
	}
}

func TestListOrdering(t *testing.T) {
	conn := openTestDB(t)
	users := NewUserStore(conn)
	goals := NewGoalStore(conn)

	user := createTestUser(t, users, "alice")

	if _, err := goals.CreateGoalWithTasks(user.ID, "First goal", []string{"a", "b", "c"}, nil); err != nil {
		t.Fatalf("CreateGoalWithTasks: %v", err)
	}
	if _, err := goals.CreateGoalWithTasks(user.ID, "Second goal", []string{"d"}, nil); err != nil {
		t.Fatalf("CreateGoalWithTasks: %v", err)
	}

	listed, err := goals.ListForUser(user.ID)
	if err != nil {
		t.Fatalf("ListForUser: %v", err)
	}
	if len(listed) != 2 {
		t.Fatalf("expected 2 goals, got %d", len(listed))
	}
	if listed[0].Name != "First goal" || listed[1].Name != "Second goal" {
		t.Error("goals out of creation order")
	}

	contents := []string{"a", "b", "c"}
	for i, task := range listed[0].Tasks {
		if task.Content != contents[i] {
			t.Errorf("task %d: expected %q, got %q", i, contents[i], task.Content)
		}
	}
}
