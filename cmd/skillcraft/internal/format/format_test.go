package format

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFlatten(t *testing.T) {
	assert.Equal(t, 480, Flatten(Parts{Days: 1}))
	assert.Equal(t, 90, Flatten(Parts{Hours: 1, Minutes: 30}))
	assert.Equal(t, 0, Flatten(Parts{}))
	assert.Equal(t, 2*480+3*60+5, Flatten(Parts{Days: 2, Hours: 3, Minutes: 5}))
}

func TestSplitIsInverseOfFlatten(t *testing.T) {
	for _, p := range []Parts{
		{Days: 1},
		{Hours: 7, Minutes: 59},
		{Days: 3, Hours: 2, Minutes: 15},
	} {
		assert.Equal(t, p, Split(Flatten(p)))
	}
	assert.Equal(t, Parts{}, Split(0))
	assert.Equal(t, Parts{}, Split(-30))
}

func TestDuration(t *testing.T) {
	tests := []struct {
		name    string
		minutes int
		want    string
	}{
		{"zero", 0, ZeroDuration},
		{"negative", -10, ZeroDuration},
		{"minutes only", 45, "45m"},
		{"hour and minutes", 90, "1h 30m"},
		{"exact hour", 60, "1h"},
		{"one day", 480, "1d"},
		{"day and hours", 480 + 4*60, "1d 4h"},
		{"day ignores minutes", 480 + 30, "1d"},
		{"one week", MinutesPerWeek, "1w"},
		{"week and days", MinutesPerWeek + 2*MinutesPerDay, "1w 2d"},
		{"months and weeks", 2*MinutesPerMonth + 3*MinutesPerWeek, "2mo 3w"},
		{"one year", MinutesPerYear, "1y"},
		{"year and months", MinutesPerYear + 5*MinutesPerMonth + MinutesPerDay, "1y 5mo"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Duration(tt.minutes))
		})
	}
}

func TestSalary(t *testing.T) {
	assert.Equal(t, "", Salary(0))
	assert.Equal(t, "", Salary(-1))
	assert.Equal(t, "$120,000/yr", Salary(120000))
	assert.Equal(t, "$1,234.50/yr", Salary(1234.5))
}

func TestPercentage(t *testing.T) {
	assert.Equal(t, "0.0%", Percentage(0))
	assert.Equal(t, "33.3%", Percentage(100.0/3))
}
