package ports_test

import (
	"testing"
	"time"

	"github.com/aretw0/vanity/pkg/ports"
	"github.com/stretchr/testify/assert"
)

func TestDays(t *testing.T) {
	from := time.Date(2024, 2, 28, 23, 0, 0, 0, time.UTC)
	to := time.Date(2024, 3, 1, 1, 0, 0, 0, time.UTC)

	days := ports.Days(from, to)
	keys := make([]string, 0, len(days))
	for _, d := range days {
		keys = append(keys, ports.DayKey(d))
	}
	assert.Equal(t, []string{"2024-02-28", "2024-02-29", "2024-03-01"}, keys)
}

func TestDays_Reversed(t *testing.T) {
	now := time.Now()
	assert.Empty(t, ports.Days(now, now.AddDate(0, 0, -1)))
}
