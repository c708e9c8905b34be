package objects

import (
	"testing"
	"time"
)

func TestStateNames(t *testing.T) {
	tests := []struct {
		name  string
		fn    func(int) string
		state int
		want  string
	}{
		{"host up", HostStateName, HostUp, "UP"},
		{"host down", HostStateName, HostDown, "DOWN"},
		{"host unreachable", HostStateName, HostUnreachable, "UNREACHABLE"},
		{"host out of range", HostStateName, 99, "UNKNOWN"},
		{"service ok", ServiceStateName, ServiceOK, "OK"},
		{"service warning", ServiceStateName, ServiceWarning, "WARNING"},
		{"service critical", ServiceStateName, ServiceCritical, "CRITICAL"},
		{"service unknown", ServiceStateName, ServiceUnknown, "UNKNOWN"},
		{"service out of range", ServiceStateName, -1, "UNKNOWN"},
		{"hard", StateTypeName, StateTypeHard, "HARD"},
		{"soft", StateTypeName, StateTypeSoft, "SOFT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.fn(tt.state); got != tt.want {
				t.Errorf("name(%d) = %q, want %q", tt.state, got, tt.want)
			}
		})
	}
}

func TestInTimeperiod(t *testing.T) {
	workhours := &Timeperiod{Name: "workhours"}
	for d := time.Monday; d <= time.Friday; d++ {
		workhours.Ranges[d] = "09:00-12:00, 13:00-17:00"
	}
	// 2024-01-01 is a Monday.
	monday := func(h, m int) time.Time { return time.Date(2024, 1, 1, h, m, 0, 0, time.UTC) }
	tests := []struct {
		name string
		tp   *Timeperiod
		t    time.Time
		want bool
	}{
		{"nil is 24x7", nil, monday(3, 0), true},
		{"morning", workhours, monday(9, 0), true},
		{"lunch", workhours, monday(12, 30), false},
		{"afternoon end exclusive", workhours, monday(17, 0), false},
		{"sunday", workhours, time.Date(2023, 12, 31, 10, 0, 0, 0, time.UTC), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := InTimeperiod(tt.tp, tt.t); got != tt.want {
				t.Errorf("InTimeperiod(%v) = %v, want %v", tt.t, got, tt.want)
			}
		})
	}
}
