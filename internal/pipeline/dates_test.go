package pipeline

import "testing"

func TestConvertDate(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"20240115", "2024-01-15"},
		{"202401150000", "2024-01-15 00:00"},
		{"202401151342", "2024-01-15 13:42"},
		// hour 24 means end of day and becomes 23:59
		{"202401152400", "2024-01-15 23:59"},
		{"202401152417", "2024-01-15 23:59"},
		{"20240115134259", "2024-01-15 13:42:59"},
		{"15.01.2024 13:42:59", "2024-01-15 13:42:59"},
		// ISO fallback for the 19-char form
		{"2024-01-15 13:42:59", "2024-01-15 13:42:59"},
	}
	for _, tt := range tests {
		got, err := ConvertDate(tt.in)
		if err != nil {
			t.Errorf("ConvertDate(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ConvertDate(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestConvertDateErrors(t *testing.T) {
	bad := []string{
		"",
		"2024",
		"2024011",       // 7 chars
		"2024013270000", // 13 chars
		"20241315",      // month 13
		"99.99.9999 00:00:00",
	}
	for _, in := range bad {
		if _, err := ConvertDate(in); err == nil {
			t.Errorf("ConvertDate(%q) succeeded, want error", in)
		}
	}
}
