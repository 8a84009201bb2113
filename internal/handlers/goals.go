package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stride-dev/stride/internal/genai"
	"github.com/stride-dev/stride/internal/store"
	"github.com/stride-dev/stride/internal/utils"
	"gorm.io/datatypes"
)

type GoalHandler struct {
	Goals      *store.GoalStore
	Decomposer genai.Decomposer
}

type SubmitGoalRequest struct {
	Name string `form:"name" json:"name" binding:"required,max=100"`
}

type TaskResponse struct {
	ID         uint   `json:"id"`
	Content    string `json:"content"`
	IsComplete bool   `json:"is_complete"`
}

type GoalResponse struct {
	ID    uint           `json:"id"`
	Name  string         `json:"name"`
	Tasks []TaskResponse `json:"tasks"`
}

// idRequest accepts {"id": 5} and {"id": "5"}; browser form values arrive as
// strings.
type idRequest struct {
	ID any `json:"id" binding:"required"`
}

func (r idRequest) uintID() (uint, error) {
	switch v := r.ID.(type) {
	case float64:
		if v < 1 || v != float64(uint(v)) {
			return 0, fmt.Errorf("invalid id %v", v)
		}
		return uint(v), nil
	case string:
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil || id == 0 {
			return 0, fmt.Errorf("invalid id %q", v)
		}
		return uint(id), nil
	default:
		return 0, fmt.Errorf("invalid id type %T", r.ID)
	}
}

// List returns the user's goals with their tasks, both in creation order.
func (h *GoalHandler) List(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	goals, err := h.Goals.ListForUser(userID)

	if err != nil {
		log.Printf("Failed to list goals: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve goals"})
		return
	}

	response := make([]GoalResponse, 0, len(goals))

	for _, goal := range goals {
		tasks := make([]TaskResponse, 0, len(goal.Tasks))
		for _, task := range goal.Tasks {
			tasks = append(tasks, TaskResponse{
				ID:         task.ID,
				Content:    task.Content,
				IsComplete: task.IsComplete,
			})
		}
		response = append(response, GoalResponse{
			ID:    goal.ID,
			Name:  goal.Name,
			Tasks: tasks,
		})
	}

	ctx.JSON(http.StatusOK, gin.H{"goals": response})
}

// Create decomposes the submitted goal text and persists the goal with its
// tasks. Nothing is written when generation fails; a decomposition with zero
// tasks is a valid outcome.
func (h *GoalHandler) Create(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req SubmitGoalRequest

	if err := ctx.ShouldBind(&req); err != nil {
		ctx.JSON(http.StatusUnprocessableEntity, gin.H{"errors": fieldErrors(err)})
		return
	}

	req.Name = strings.TrimSpace(req.Name)

	if req.Name == "" {
		ctx.JSON(http.StatusUnprocessableEntity, gin.H{
			"errors": gin.H{"name": "This field is required."},
		})
		return
	}

	genCtx, cancel := context.WithTimeout(ctx.Request.Context(), 45*time.Second)
	defer cancel()

	decomposition, err := h.Decomposer.Decompose(genCtx, req.Name)

	if err != nil {
		log.Printf("Failed to decompose goal: %v", err)
		ctx.JSON(http.StatusBadGateway, gin.H{"error": "Failed to generate tasks"})
		return
	}

	if _, err := h.Goals.CreateGoalWithTasks(userID, req.Name, decomposition.Tasks, datatypes.JSON(decomposition.Raw)); err != nil {
		log.Printf("Failed to create goal: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save goal"})
		return
	}

	ctx.Redirect(http.StatusSeeOther, "/")
}

// CompleteTask toggles the completion flag of one of the user's tasks.
func (h *GoalHandler) CompleteTask(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req idRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	taskID, err := req.uintID()

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid task ID"})
		return
	}

	task, err := h.Goals.ToggleTask(userID, taskID)

	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
			return
		}
		log.Printf("Failed to toggle task: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update task"})
		return
	}

	ack := "unchecked!"
	if task.IsComplete {
		ack = "checked!"
	}

	ctx.JSON(http.StatusOK, gin.H{"response": ack})
}

// Delete cascade-deletes a goal and its tasks.
func (h *GoalHandler) Delete(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req idRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	goalID, err := req.uintID()

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid goal ID"})
		return
	}

	if err := h.Goals.DeleteGoalCascade(userID, goalID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Goal not found"})
			return
		}
		log.Printf("Failed to delete goal: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete goal"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"response": "deleted!"})
}
