package schedule

import (
	"testing"
)

func TestDetect(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		command string
		want    Verdict
	}{
		{"every day", "remind me to drink water every day", VerdictRecurring},
		{"daily mixed case", "Daily standup summary", VerdictRecurring},
		{"create schedule", "create schedule for the backup", VerdictRecurring},
		{"buat schedule", "buat schedule laporan mingguan", VerdictRecurring},
		{"jadwalkan", "jadwalkan rapat tim", VerdictRecurring},
		{"setiap hari", "kirim ringkasan setiap hari", VerdictRecurring},
		{"recurring wins without creation verb", "recurring payment check", VerdictRecurring},
		{"hours with creation verb", "create a backup every 3 hours", VerdictTimed},
		{"jam with creation verb", "buat pengingat 2 jam lagi", VerdictTimed},
		{"pukul with creation verb", "tambah tugas pukul 7", VerdictTimed},
		{"setiap with creation verb", "add a check setiap 3 jam", VerdictTimed},
		{"medium without creation verb", "show my tasks every 2 hours", VerdictNone},
		{"plain create", "add buy milk to my list", VerdictNone},
		{"empty", "", VerdictNone},
		{"word boundary", "the dailyness of life", VerdictNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Detect(tt.command); got != tt.want {
				t.Errorf("Detect(%q) = %v, want %v", tt.command, got, tt.want)
			}
		})
	}
}

func TestDetect_StrongBeforeMedium(t *testing.T) {
	t.Parallel()

	// Both families match; the strong family must win.
	cmd := "add a reminder at 9 hour mark every day"
	if got := Detect(cmd); got != VerdictRecurring {
		t.Errorf("Detect(%q) = %v, want %v", cmd, got, VerdictRecurring)
	}
}

func TestLabelMentionsScheduling(t *testing.T) {
	t.Parallel()

	tests := []struct {
		label string
		want  bool
	}{
		{"schedule", true},
		{"schedule_meeting", true},
		{"every_day", true},
		{"setiap-hari", true},
		{"daily_report", true},
		{"jadwalkan", true},
		{"create_daily_digest", true},
		{"every_5_minutes", true},
		{"create_task", false},
		{"list_schedules", false},
		{"reschedule_reminder", false},
		{"set_reminder", false},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			t.Parallel()
			if got := LabelMentionsScheduling(tt.label); got != tt.want {
				t.Errorf("LabelMentionsScheduling(%q) = %v, want %v", tt.label, got, tt.want)
			}
		})
	}
}

func TestVerdict_RoundTrip(t *testing.T) {
	t.Parallel()

	for _, v := range []Verdict{VerdictNone, VerdictRecurring, VerdictTimed} {
		got, err := ParseVerdict(v.String())
		if err != nil {
			t.Fatalf("ParseVerdict(%q) error: %v", v.String(), err)
		}
		if got != v {
			t.Errorf("ParseVerdict(%q) = %v, want %v", v.String(), got, v)
		}
	}

	if _, err := ParseVerdict("sometimes"); err == nil {
		t.Error("ParseVerdict(\"sometimes\") expected error")
	}
	if !VerdictTimed.Scheduled() || VerdictNone.Scheduled() {
		t.Error("Scheduled() should be true only for recurring and timed")
	}
}

func TestVerdict_UnmarshalText(t *testing.T) {
	t.Parallel()

	var v Verdict
	if err := v.UnmarshalText([]byte("timed")); err != nil {
		t.Fatalf("UnmarshalText() error: %v", err)
	}
	if v != VerdictTimed {
		t.Errorf("UnmarshalText(timed) = %v, want %v", v, VerdictTimed)
	}
	if err := v.UnmarshalText([]byte("sometimes")); err == nil {
		t.Error("UnmarshalText(sometimes) expected error")
	}
	if v != VerdictTimed {
		t.Errorf("failed UnmarshalText changed value to %v", v)
	}
}
