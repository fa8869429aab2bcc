package section

import "github.com/taskdeck/taskdeck/internal/task"

// Section is a derived grouping of tasks sharing one status. It is
// recomputed from the store's collection on every read and holds no
// state of its own.
type Section struct {
	Status task.Status `json:"status"`
	Title  string      `json:"title"`
	Color  string      `json:"color"`
	Tasks  []task.Task `json:"tasks"`
}

var titles = map[task.Status]string{
	task.StatusTodo:       "To-Do",
	task.StatusInProgress: "In Progress",
	task.StatusCompleted:  "Completed",
}

var colors = map[task.Status]string{
	task.StatusTodo:       "#FFC0CB",
	task.StatusInProgress: "#ADD8E6",
	task.StatusCompleted:  "#90EE90",
}

// Partition splits tasks into the three fixed sections. It is a stable
// partition: each section's tasks keep the relative order they had in
// the input. A task whose status is not one of the three known values
// is dropped rather than reported as an error.
func Partition(tasks []task.Task) []Section {
	sections := make([]Section, 0, len(task.StatusOrder))
	for _, status := range task.StatusOrder {
		s := Section{
			Status: status,
			Title:  titles[status],
			Color:  colors[status],
		}
		for _, t := range tasks {
			if t.Status == status {
				s.Tasks = append(s.Tasks, t)
			}
		}
		sections = append(sections, s)
	}
	return sections
}
