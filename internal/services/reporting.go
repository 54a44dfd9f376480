package services

import "devcatalyst/portal/internal/models"

// The functions below are pure: they read the collections they are given and
// never touch storage.

// CountByStatus always carries every task status, zero-filled.
func CountByStatus(tasks []models.Task) map[models.TaskStatus]int {
	counts := make(map[models.TaskStatus]int, len(models.TaskStatuses))
	for _, status := range models.TaskStatuses {
		counts[status] = 0
	}
	for _, t := range tasks {
		counts[t.Status]++
	}
	return counts
}

func CountByAssignee(tasks []models.Task) map[string]int {
	counts := make(map[string]int)
	for _, t := range tasks {
		counts[t.Assignee]++
	}
	return counts
}

// CountByPriority always carries every priority, zero-filled.
func CountByPriority(tasks []models.Task) map[models.Priority]int {
	counts := make(map[models.Priority]int, len(models.Priorities))
	for _, p := range models.Priorities {
		counts[p] = 0
	}
	for _, t := range tasks {
		counts[t.Priority]++
	}
	return counts
}

func CountDoubtsByStatus(doubts []models.Doubt) map[models.DoubtStatus]int {
	counts := map[models.DoubtStatus]int{
		models.DoubtStatusOpen:     0,
		models.DoubtStatusResolved: 0,
	}
	for _, d := range doubts {
		counts[d.Status]++
	}
	return counts
}

func CountDoubtsByAuthor(doubts []models.Doubt) map[string]int {
	counts := make(map[string]int)
	for _, d := range doubts {
		counts[d.Author]++
	}
	return counts
}

// ResolutionRate is resolved/total in [0, 1], and 0 when there are no doubts.
func ResolutionRate(doubts []models.Doubt) float64 {
	if len(doubts) == 0 {
		return 0
	}
	resolved := 0
	for _, d := range doubts {
		if d.Status == models.DoubtStatusResolved {
			resolved++
		}
	}
	return float64(resolved) / float64(len(doubts))
}

// CompletionRate is completed/total in [0, 1], and 0 when there are no tasks.
func CompletionRate(tasks []models.Task) float64 {
	if len(tasks) == 0 {
		return 0
	}
	return float64(CountByStatus(tasks)[models.TaskStatusCompleted]) / float64(len(tasks))
}

func TotalPoints(tasks []models.Task) int {
	total := 0
	for _, t := range tasks {
		total += t.Points
	}
	return total
}

func AveragePoints(tasks []models.Task) float64 {
	if len(tasks) == 0 {
		return 0
	}
	return float64(TotalPoints(tasks)) / float64(len(tasks))
}

type Progress struct {
	Member         string  `json:"member"`
	Total          int     `json:"total"`
	Pending        int     `json:"pending"`
	Submitted      int     `json:"submitted"`
	Completed      int     `json:"completed"`
	TotalPoints    int     `json:"total_points"`
	EarnedPoints   int     `json:"earned_points"`
	CompletionRate float64 `json:"completion_rate"`
}

// MemberProgress summarises the tasks assigned to member.
func MemberProgress(tasks []models.Task, member string) Progress {
	var own []models.Task
	for _, t := range tasks {
		if t.Assignee == member {
			own = append(own, t)
		}
	}

	counts := CountByStatus(own)
	progress := Progress{
		Member:         member,
		Total:          len(own),
		Pending:        counts[models.TaskStatusPending],
		Submitted:      counts[models.TaskStatusSubmitted],
		Completed:      counts[models.TaskStatusCompleted],
		TotalPoints:    TotalPoints(own),
		CompletionRate: CompletionRate(own),
	}
	for _, t := range own {
		if t.Status == models.TaskStatusCompleted {
			progress.EarnedPoints += t.Points
		}
	}
	return progress
}
