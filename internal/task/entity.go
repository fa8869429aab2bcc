package task

import "time"

type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
)

// StatusOrder is the fixed display order of the three sections.
var StatusOrder = []Status{StatusTodo, StatusInProgress, StatusCompleted}

func (s Status) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

type Category string

const (
	CategoryWork     Category = "work"
	CategoryPersonal Category = "personal"
)

func (c Category) Valid() bool {
	return c == CategoryWork || c == CategoryPersonal
}

// DescriptionLimit is the soft cap applied to free-text descriptions.
const DescriptionLimit = 300

// Task is a persisted task record. ID, CreatedAt and UpdatedAt are
// assigned by the gateway on creation and never set by callers.
type Task struct {
	ID            string    `yaml:"id" json:"id"`
	OwnerID       string    `yaml:"owner_id" json:"ownerId"`
	Title         string    `yaml:"title" json:"title"`
	Description   string    `yaml:"description" json:"description"`
	Category      Category  `yaml:"category" json:"category"`
	Status        Status    `yaml:"status" json:"status"`
	DueDate       time.Time `yaml:"due_date" json:"dueDate"`
	AttachmentURL string    `yaml:"attachment_url,omitempty" json:"attachmentUrl,omitempty"`
	CreatedAt     time.Time `yaml:"created_at" json:"createdAt"`
	UpdatedAt     time.Time `yaml:"updated_at" json:"updatedAt"`
}

// Draft is a task that has not been persisted yet. It deliberately has
// no ID and no timestamps, so a draft can never be passed where a
// persisted record is required.
type Draft struct {
	OwnerID     string    `json:"ownerId"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    Category  `json:"category"`
	Status      Status    `json:"status"`
	DueDate     time.Time `json:"dueDate"`
}
