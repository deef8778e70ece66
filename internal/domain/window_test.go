package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func at(hhmm string) time.Time {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		panic(err)
	}
	return t
}

func TestWindowsOverlap(t *testing.T) {
	tests := []struct {
		name         string
		aStart, aEnd string
		bStart, bEnd string
		want         bool
	}{
		{"candidate inside existing", "10:00", "10:30", "10:15", "10:45", true},
		{"disjoint later window", "11:00", "11:30", "10:15", "10:45", false},
		{"disjoint earlier window", "09:00", "09:30", "10:15", "10:45", false},
		{"identical windows", "10:00", "10:30", "10:00", "10:30", true},
		{"existing inside candidate", "10:00", "11:00", "10:15", "10:45", true},
		{"touching end to start does not overlap", "10:00", "10:15", "10:15", "10:45", false},
		{"touching start to end does not overlap", "10:45", "11:00", "10:15", "10:45", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := WindowsOverlap(at(tt.aStart), at(tt.aEnd), at(tt.bStart), at(tt.bEnd))
			assert.Equal(t, tt.want, got)
		})
	}
}
