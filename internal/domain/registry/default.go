package registry

import "sync"

// Canonical operation names of the default table.
const (
	CreateTask = "create_task"
	GetTasks   = "get_tasks"
	UpdateTask = "update_task"
	DeleteTask = "delete_task"

	CreateReminder = "create_reminder"
	GetReminders   = "get_reminders"
	UpdateReminder = "update_reminder"
	DeleteReminder = "delete_reminder"

	CreateAIAction = "create_ai_action"
	GetAIActions   = "get_ai_actions"
	UpdateAIAction = "update_ai_action"
	DeleteAIAction = "delete_ai_action"

	CreateJournalEntry   = "create_journal_entry"
	SearchJournalEntries = "search_journal_entries"
	UpdateJournalEntry   = "update_journal_entry"
	DeleteJournalEntry   = "delete_journal_entry"
	GetJournalCategories = "get_journal_categories"

	AddAIBrain    = "add_ai_brain"
	SearchAIBrain = "search_ai_brain"
	UpdateAIBrain = "update_ai_brain"
	DeleteAIBrain = "delete_ai_brain"
)

// defaultEntries is the production table. Order matters: semantic matching
// walks entries in this order and the first plausible hit wins.
var defaultEntries = []Entry{
	{
		Name:     CreateTask,
		Category: CategoryTask,
		Aliases:  []string{"add_task", "new_task", "make_task", "task_add", "task_create", "buat_tugas", "tambah_tugas"},
		Intents:  []string{"add", "create", "make", "new", "insert", "start", "tambah", "buat"},
	},
	{
		Name:     GetTasks,
		Category: CategoryTask,
		Aliases:  []string{"list_tasks", "show_tasks", "all_tasks", "tasks_list", "view_tasks", "display_tasks", "lihat_tugas"},
		Intents:  []string{"list", "show", "get", "all", "view", "display", "find", "search", "lihat"},
	},
	{
		Name:     UpdateTask,
		Category: CategoryTask,
		Aliases:  []string{"modify_task", "edit_task", "change_task", "task_update", "task_modify", "complete_task", "finish_task"},
		Intents:  []string{"update", "modify", "edit", "change", "alter", "complete", "finish", "ubah"},
	},
	{
		Name:     DeleteTask,
		Category: CategoryTask,
		Aliases:  []string{"remove_task", "task_delete", "task_remove", "hapus_tugas"},
		Intents:  []string{"delete", "remove", "destroy", "eliminate", "hapus"},
	},
	{
		Name:     CreateReminder,
		Category: CategoryReminder,
		Aliases:  []string{"set_reminder", "add_reminder", "new_reminder", "make_reminder", "remind_me", "ingatkan"},
		Intents:  []string{"set", "create", "add", "make", "schedule"},
	},
	{
		Name:     GetReminders,
		Category: CategoryReminder,
		Aliases:  []string{"list_reminders", "show_reminders", "all_reminders", "view_reminders"},
		Intents:  []string{"list", "show", "get", "all", "view", "display"},
	},
	{
		Name:     UpdateReminder,
		Category: CategoryReminder,
		Aliases:  []string{"modify_reminder", "edit_reminder", "change_reminder", "reschedule_reminder"},
		Intents:  []string{"update", "modify", "edit", "change"},
	},
	{
		Name:     DeleteReminder,
		Category: CategoryReminder,
		Aliases:  []string{"remove_reminder", "cancel_reminder"},
		Intents:  []string{"delete", "remove", "cancel", "destroy"},
	},
	{
		Name:     CreateAIAction,
		Category: CategorySchedule,
		Aliases: []string{
			"schedule", "recurring_task", "automated_task", "schedule_task", "daily_task",
			"recurring", "automation", "create_schedule", "buat_schedule", "jadwalkan",
		},
		Intents: []string{
			"schedule", "recurring", "daily", "weekly", "monthly", "repeat", "automate",
			"automation", "tiap", "setiap", "berkala", "otomatis",
		},
	},
	{
		Name:     GetAIActions,
		Category: CategorySchedule,
		Aliases:  []string{"list_ai_actions", "show_schedules", "list_schedules", "show_ai_actions", "view_schedules", "automations"},
		Intents:  []string{"list", "show", "get", "view", "display"},
	},
	{
		Name:     UpdateAIAction,
		Category: CategorySchedule,
		Aliases:  []string{"modify_ai_action", "edit_schedule", "change_schedule", "update_schedule"},
		Intents:  []string{"update", "modify", "edit", "change", "pause", "resume"},
	},
	{
		Name:     DeleteAIAction,
		Category: CategorySchedule,
		Aliases:  []string{"remove_ai_action", "cancel_schedule", "delete_schedule", "stop_automation"},
		Intents:  []string{"delete", "remove", "cancel", "stop"},
	},
	{
		Name:     CreateJournalEntry,
		Category: CategoryJournal,
		Aliases: []string{
			"add_journal", "create_journal", "new_journal", "write_journal", "journal_entry",
			"diary_entry", "note", "write_note", "save_note", "record", "log_entry",
			"create_note", "make_note", "tulis_jurnal", "catat",
		},
		Intents: []string{"write", "create", "add", "new", "journal", "diary", "note", "record", "log", "save"},
	},
	{
		Name:     SearchJournalEntries,
		Category: CategoryJournal,
		Aliases: []string{
			"list_journal", "get_journals", "show_journals", "my_journals", "view_journals",
			"list_notes", "get_notes", "show_notes", "my_notes", "view_notes", "all_journals",
			"all_notes", "search_journals", "find_journals",
		},
		Intents: []string{"list", "show", "get", "view", "find", "search", "read"},
	},
	{
		Name:     UpdateJournalEntry,
		Category: CategoryJournal,
		Aliases: []string{
			"update_journal", "edit_journal", "modify_journal", "change_journal",
			"edit_note", "update_note", "modify_note", "change_note",
		},
		Intents: []string{"update", "edit", "modify", "change"},
	},
	{
		Name:     DeleteJournalEntry,
		Category: CategoryJournal,
		Aliases:  []string{"delete_journal", "remove_journal", "delete_note", "remove_note", "hapus_jurnal"},
		Intents:  []string{"delete", "remove", "erase"},
	},
	{
		Name:     GetJournalCategories,
		Category: CategoryJournal,
		Aliases:  []string{"list_categories", "show_categories", "journal_categories", "note_categories"},
		Intents:  []string{"categories", "category"},
	},
	{
		Name:     AddAIBrain,
		Category: CategoryMemory,
		Aliases: []string{
			"add_memory", "save_memory", "remember", "learn", "store_info", "save_info",
			"add_knowledge", "save_knowledge", "create_memory", "store_knowledge", "memorize",
			"keep_in_mind", "ingat", "simpan_info", "pelajari",
		},
		Intents: []string{"remember", "learn", "save", "store", "add", "memorize", "keep", "knowledge"},
	},
	{
		Name:     SearchAIBrain,
		Category: CategoryMemory,
		Aliases: []string{
			"search_memory", "find_memory", "recall", "lookup", "search_knowledge",
			"find_knowledge", "what_do_you_know", "what_do_you_remember", "cari_ingatan", "temukan_info",
		},
		Intents: []string{"search", "find", "recall", "lookup", "know"},
	},
	{
		Name:     UpdateAIBrain,
		Category: CategoryMemory,
		Aliases: []string{
			"update_memory", "edit_memory", "modify_memory", "change_memory",
			"update_knowledge", "edit_knowledge", "modify_knowledge",
		},
		Intents: []string{"update", "edit", "modify", "change"},
	},
	{
		Name:     DeleteAIBrain,
		Category: CategoryMemory,
		Aliases: []string{
			"delete_memory", "remove_memory", "forget", "delete_knowledge", "remove_knowledge",
			"erase_memory", "clear_memory", "lupa", "hapus_ingatan",
		},
		Intents: []string{"delete", "remove", "forget", "erase", "clear"},
	},
}

var defaultRegistry = sync.OnceValue(func() *Registry {
	return MustNew(defaultEntries...)
})

// Default returns the process-wide production registry. It is built on first
// use and never modified afterwards.
func Default() *Registry {
	return defaultRegistry()
}
