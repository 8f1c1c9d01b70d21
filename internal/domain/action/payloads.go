package action

// Payload is the typed field set of one canonical operation.
type Payload interface {
	Operation() Operation
}

// payloadFactories is the closed set of operations and their payload types.
var payloadFactories = map[Operation]func() Payload{
	OpCreateTask: func() Payload { return &CreateTask{} },
	OpGetTasks:   func() Payload { return &GetTasks{} },
	OpUpdateTask: func() Payload { return &UpdateTask{} },
	OpDeleteTask: func() Payload { return &DeleteTask{} },

	OpCreateReminder: func() Payload { return &CreateReminder{} },
	OpGetReminders:   func() Payload { return &GetReminders{} },
	OpUpdateReminder: func() Payload { return &UpdateReminder{} },
	OpDeleteReminder: func() Payload { return &DeleteReminder{} },

	OpCreateAIAction: func() Payload { return &CreateAIAction{} },
	OpGetAIActions:   func() Payload { return &GetAIActions{} },
	OpUpdateAIAction: func() Payload { return &UpdateAIAction{} },
	OpDeleteAIAction: func() Payload { return &DeleteAIAction{} },

	OpCreateJournalEntry:   func() Payload { return &CreateJournalEntry{} },
	OpSearchJournalEntries: func() Payload { return &SearchJournalEntries{} },
	OpUpdateJournalEntry:   func() Payload { return &UpdateJournalEntry{} },
	OpDeleteJournalEntry:   func() Payload { return &DeleteJournalEntry{} },
	OpGetJournalCategories: func() Payload { return &GetJournalCategories{} },

	OpAddAIBrain:    func() Payload { return &AddAIBrain{} },
	OpSearchAIBrain: func() Payload { return &SearchAIBrain{} },
	OpUpdateAIBrain: func() Payload { return &UpdateAIBrain{} },
	OpDeleteAIBrain: func() Payload { return &DeleteAIBrain{} },
}

// Tasks

type CreateTask struct {
	Title       string `mapstructure:"title" json:"title" validate:"required"`
	Description string `mapstructure:"description" json:"description,omitempty"`
	Notes       string `mapstructure:"notes" json:"notes,omitempty"`
	Priority    string `mapstructure:"priority" json:"priority,omitempty" validate:"omitempty,oneof=low medium high"`
	DueDate     string `mapstructure:"due_date" json:"due_date,omitempty"`
	Category    string `mapstructure:"category" json:"category,omitempty"`
}

type GetTasks struct {
	Status    string   `mapstructure:"status" json:"status,omitempty" validate:"omitempty,task_status"`
	Priority  string   `mapstructure:"priority" json:"priority,omitempty" validate:"omitempty,oneof=low medium high"`
	Category  string   `mapstructure:"category" json:"category,omitempty"`
	TaskIDs   []string `mapstructure:"task_ids" json:"task_ids,omitempty"`
	OrderBy   string   `mapstructure:"order_by" json:"order_by,omitempty"`
	Ascending bool     `mapstructure:"ascending" json:"ascending,omitempty"`
	Limit     int      `mapstructure:"limit" json:"limit,omitempty" validate:"omitempty,min=1"`
}

// UpdateTask targets a task by TitleMatch or TaskID. Patch carries arbitrary
// column updates; the explicit fields are shorthands for common ones.
type UpdateTask struct {
	TitleMatch  string         `mapstructure:"titleMatch" json:"titleMatch,omitempty" validate:"required_without=TaskID"`
	TaskID      string         `mapstructure:"task_id" json:"task_id,omitempty"`
	Patch       map[string]any `mapstructure:"patch" json:"patch,omitempty"`
	Title       string         `mapstructure:"title" json:"title,omitempty"`
	Description string         `mapstructure:"description" json:"description,omitempty"`
	Status      string         `mapstructure:"status" json:"status,omitempty" validate:"omitempty,task_status"`
	Priority    string         `mapstructure:"priority" json:"priority,omitempty" validate:"omitempty,oneof=low medium high"`
	DueDate     string         `mapstructure:"due_date" json:"due_date,omitempty"`
	Category    string         `mapstructure:"category" json:"category,omitempty"`
}

type DeleteTask struct {
	TitleMatch string `mapstructure:"titleMatch" json:"titleMatch,omitempty" validate:"required_without=TaskID"`
	TaskID     string `mapstructure:"task_id" json:"task_id,omitempty"`
	Confirm    bool   `mapstructure:"confirm" json:"confirm" validate:"required"`
}

func (*CreateTask) Operation() Operation { return OpCreateTask }
func (*GetTasks) Operation() Operation   { return OpGetTasks }
func (*UpdateTask) Operation() Operation { return OpUpdateTask }
func (*DeleteTask) Operation() Operation { return OpDeleteTask }

// Reminders

type CreateReminder struct {
	Title       string `mapstructure:"title" json:"title" validate:"required"`
	RemindAt    string `mapstructure:"remind_at" json:"remind_at" validate:"required,utc_timestamp"`
	Description string `mapstructure:"description" json:"description,omitempty"`
	TaskID      string `mapstructure:"task_id" json:"task_id,omitempty"`
}

type GetReminders struct {
	IsSent *bool  `mapstructure:"is_sent" json:"is_sent,omitempty"`
	TaskID string `mapstructure:"task_id" json:"task_id,omitempty"`
	Limit  int    `mapstructure:"limit" json:"limit,omitempty" validate:"omitempty,min=1"`
}

type UpdateReminder struct {
	ReminderID  string `mapstructure:"reminder_id" json:"reminder_id,omitempty"`
	TitleMatch  string `mapstructure:"titleMatch" json:"titleMatch,omitempty"`
	Title       string `mapstructure:"title" json:"title" validate:"required"`
	RemindAt    string `mapstructure:"remind_at" json:"remind_at" validate:"required,utc_timestamp"`
	Description string `mapstructure:"description" json:"description,omitempty"`
}

type DeleteReminder struct {
	ReminderID string `mapstructure:"reminder_id" json:"reminder_id,omitempty"`
	TitleMatch string `mapstructure:"titleMatch" json:"titleMatch,omitempty"`
}

func (*CreateReminder) Operation() Operation { return OpCreateReminder }
func (*GetReminders) Operation() Operation   { return OpGetReminders }
func (*UpdateReminder) Operation() Operation { return OpUpdateReminder }
func (*DeleteReminder) Operation() Operation { return OpDeleteReminder }

// Scheduled AI actions

// CreateAIAction schedules an automated action. ScheduleValue is an absolute
// time for one_time schedules and a cron expression for cron schedules.
type CreateAIAction struct {
	Title         string         `mapstructure:"title" json:"title,omitempty"`
	Description   string         `mapstructure:"description" json:"description,omitempty"`
	ActionType    string         `mapstructure:"action_type" json:"action_type,omitempty"`
	ActionPayload map[string]any `mapstructure:"action_payload" json:"action_payload,omitempty"`
	ScheduleType  string         `mapstructure:"schedule_type" json:"schedule_type,omitempty" validate:"omitempty,oneof=one_time cron"`
	ScheduleValue string         `mapstructure:"schedule_value" json:"schedule_value,omitempty"`
	Timezone      string         `mapstructure:"timezone" json:"timezone,omitempty"`
	NextRunAt     string         `mapstructure:"next_run_at" json:"next_run_at,omitempty" validate:"omitempty,utc_timestamp"`
}

type GetAIActions struct {
	Status string `mapstructure:"status" json:"status,omitempty"`
	Limit  int    `mapstructure:"limit" json:"limit,omitempty" validate:"omitempty,min=1"`
}

type UpdateAIAction struct {
	ScheduleID string         `mapstructure:"schedule_id" json:"schedule_id,omitempty"`
	TitleMatch string         `mapstructure:"titleMatch" json:"titleMatch,omitempty"`
	Patch      map[string]any `mapstructure:"patch" json:"patch,omitempty"`
	Status     string         `mapstructure:"status" json:"status,omitempty" validate:"omitempty,oneof=active paused"`
}

type DeleteAIAction struct {
	ScheduleID string `mapstructure:"schedule_id" json:"schedule_id,omitempty"`
	TitleMatch string `mapstructure:"titleMatch" json:"titleMatch,omitempty"`
}

func (*CreateAIAction) Operation() Operation { return OpCreateAIAction }
func (*GetAIActions) Operation() Operation   { return OpGetAIActions }
func (*UpdateAIAction) Operation() Operation { return OpUpdateAIAction }
func (*DeleteAIAction) Operation() Operation { return OpDeleteAIAction }

// Journal

type CreateJournalEntry struct {
	Title         string   `mapstructure:"title" json:"title" validate:"required"`
	Content       string   `mapstructure:"content" json:"content" validate:"required"`
	Category      string   `mapstructure:"category" json:"category,omitempty"`
	EntryType     string   `mapstructure:"entry_type" json:"entry_type,omitempty"`
	MoodScore     int      `mapstructure:"mood_score" json:"mood_score,omitempty" validate:"omitempty,min=1,max=10"`
	EmotionalTone string   `mapstructure:"emotional_tone" json:"emotional_tone,omitempty"`
	Themes        []string `mapstructure:"themes" json:"themes,omitempty"`
}

type SearchJournalEntries struct {
	Titles      []string `mapstructure:"titles" json:"titles,omitempty"`
	TitleLike   string   `mapstructure:"title_like" json:"title_like,omitempty"`
	ContentLike string   `mapstructure:"content_like" json:"content_like,omitempty"`
	Category    string   `mapstructure:"category" json:"category,omitempty"`
	Limit       int      `mapstructure:"limit" json:"limit,omitempty" validate:"omitempty,min=1"`
}

type UpdateJournalEntry struct {
	ID         string         `mapstructure:"id" json:"id,omitempty"`
	TitleMatch string         `mapstructure:"titleMatch" json:"titleMatch,omitempty"`
	Patch      map[string]any `mapstructure:"patch" json:"patch,omitempty"`
	Title      string         `mapstructure:"title" json:"title,omitempty"`
	Content    string         `mapstructure:"content" json:"content,omitempty"`
}

type DeleteJournalEntry struct {
	ID         string `mapstructure:"id" json:"id,omitempty"`
	TitleMatch string `mapstructure:"titleMatch" json:"titleMatch,omitempty"`
}

type GetJournalCategories struct{}

func (*CreateJournalEntry) Operation() Operation   { return OpCreateJournalEntry }
func (*SearchJournalEntries) Operation() Operation { return OpSearchJournalEntries }
func (*UpdateJournalEntry) Operation() Operation   { return OpUpdateJournalEntry }
func (*DeleteJournalEntry) Operation() Operation   { return OpDeleteJournalEntry }
func (*GetJournalCategories) Operation() Operation { return OpGetJournalCategories }

// Memory

type AddAIBrain struct {
	Title      string         `mapstructure:"title" json:"title" validate:"required"`
	Content    string         `mapstructure:"content" json:"content" validate:"required"`
	MemoryType string         `mapstructure:"memory_type" json:"memory_type,omitempty"`
	Importance int            `mapstructure:"importance" json:"importance,omitempty" validate:"omitempty,min=1,max=10"`
	Data       map[string]any `mapstructure:"data" json:"data,omitempty"`
}

type SearchAIBrain struct {
	Query      string `mapstructure:"query" json:"query,omitempty"`
	MemoryType string `mapstructure:"memory_type" json:"memory_type,omitempty"`
	Limit      int    `mapstructure:"limit" json:"limit,omitempty" validate:"omitempty,min=1"`
}

type UpdateAIBrain struct {
	MemoryID   string         `mapstructure:"memory_id" json:"memory_id,omitempty"`
	TitleMatch string         `mapstructure:"titleMatch" json:"titleMatch,omitempty"`
	Patch      map[string]any `mapstructure:"patch" json:"patch,omitempty"`
	Content    string         `mapstructure:"content" json:"content,omitempty"`
}

type DeleteAIBrain struct {
	MemoryID   string `mapstructure:"memory_id" json:"memory_id,omitempty"`
	TitleMatch string `mapstructure:"titleMatch" json:"titleMatch,omitempty"`
}

func (*AddAIBrain) Operation() Operation    { return OpAddAIBrain }
func (*SearchAIBrain) Operation() Operation { return OpSearchAIBrain }
func (*UpdateAIBrain) Operation() Operation { return OpUpdateAIBrain }
func (*DeleteAIBrain) Operation() Operation { return OpDeleteAIBrain }
