package valueobject

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestPeriodOf(t *testing.T) {
	tests := []struct {
		name      string
		in        time.Time
		wantStart time.Time
		wantEnd   time.Time
	}{
		{"mid month", date(2024, time.March, 15), date(2024, time.March, 1), date(2024, time.March, 31)},
		{"leap february", date(2024, time.February, 29), date(2024, time.February, 1), date(2024, time.February, 29)},
		{"plain february", date(2023, time.February, 1), date(2023, time.February, 1), date(2023, time.February, 28)},
		{"december", date(2023, time.December, 31), date(2023, time.December, 1), date(2023, time.December, 31)},
		{"time of day dropped", time.Date(2024, time.April, 30, 23, 59, 0, 0, time.UTC), date(2024, time.April, 1), date(2024, time.April, 30)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := PeriodOf(tt.in)
			assert.True(t, p.Start().Equal(tt.wantStart), "start %s", p.Start())
			assert.True(t, p.End().Equal(tt.wantEnd), "end %s", p.End())
			assert.True(t, p.Contains(tt.in))
		})
	}
}

func TestNewBillingPeriod(t *testing.T) {
	p, err := NewBillingPeriod(date(2024, time.June, 1), date(2024, time.June, 30))
	require.NoError(t, err)
	assert.True(t, p.Equals(PeriodOf(date(2024, time.June, 10))))
	assert.Equal(t, "2024-06", p.String())

	_, err = NewBillingPeriod(date(2024, time.June, 2), date(2024, time.June, 30))
	assert.Error(t, err)

	_, err = NewBillingPeriod(date(2024, time.June, 1), date(2024, time.July, 1))
	assert.Error(t, err)
}

func TestBillingPeriod_Contains(t *testing.T) {
	p := PeriodOf(date(2024, time.January, 10))
	assert.False(t, p.Contains(date(2023, time.December, 31)))
	assert.False(t, p.Contains(date(2024, time.February, 1)))
	assert.True(t, p.Contains(date(2024, time.January, 1)))
}
