package metering

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rentflow/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func values(e, cw, hw, h int64) Values {
	return Values{
		Electricity: decimal.NewFromInt(e),
		ColdWater:   decimal.NewFromInt(cw),
		HotWater:    decimal.NewFromInt(hw),
		Heating:     decimal.NewFromInt(h),
	}
}

func TestNewReading(t *testing.T) {
	apartmentID := uuid.New()

	t.Run("derives the billing period from the measurement month", func(t *testing.T) {
		r, err := NewReading(apartmentID, time.Date(2024, time.May, 17, 14, 30, 0, 0, time.UTC), values(120, 3, 2, 0))
		require.NoError(t, err)
		assert.Equal(t, time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC), r.Period.Start())
		assert.Equal(t, time.Date(2024, time.May, 31, 0, 0, 0, 0, time.UTC), r.Period.End())
		assert.Equal(t, time.Date(2024, time.May, 17, 0, 0, 0, 0, time.UTC), r.MeasurementDate)
		assert.Nil(t, r.InvoiceID)
	})

	t.Run("rejects negative values", func(t *testing.T) {
		_, err := NewReading(apartmentID, time.Now(), values(1, -1, 0, 0))
		assert.True(t, errors.Is(err, shared.ErrValidation))
	})

	t.Run("rejects values beyond three decimal places", func(t *testing.T) {
		v := values(1, 1, 1, 1)
		v.Heating = decimal.RequireFromString("1.2345")
		_, err := NewReading(apartmentID, time.Now(), v)
		assert.True(t, errors.Is(err, shared.ErrValidation))

		v.Heating = decimal.RequireFromString("1.2340")
		_, err = NewReading(apartmentID, time.Now(), v)
		assert.NoError(t, err)
	})

	t.Run("requires an apartment", func(t *testing.T) {
		_, err := NewReading(uuid.Nil, time.Now(), values(1, 1, 1, 1))
		assert.True(t, errors.Is(err, shared.ErrValidation))
	})
}

func TestReading_Update(t *testing.T) {
	r, err := NewReading(uuid.New(), time.Date(2024, time.May, 2, 0, 0, 0, 0, time.UTC), values(1, 1, 1, 1))
	require.NoError(t, err)

	moved, err := r.Update(time.Date(2024, time.May, 28, 0, 0, 0, 0, time.UTC), values(2, 2, 2, 2))
	require.NoError(t, err)
	assert.False(t, moved)
	assert.True(t, r.Values.Electricity.Equal(decimal.NewFromInt(2)))

	moved, err = r.Update(time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC), values(2, 2, 2, 2))
	require.NoError(t, err)
	assert.True(t, moved)
	assert.Equal(t, "2024-06", r.Period.String())
}

func TestReading_InvoiceLink(t *testing.T) {
	r, err := NewReading(uuid.New(), time.Now(), values(1, 1, 1, 1))
	require.NoError(t, err)

	invoiceID := uuid.New()
	r.LinkInvoice(invoiceID)
	require.NotNil(t, r.InvoiceID)
	assert.Equal(t, invoiceID, *r.InvoiceID)

	r.UnlinkInvoice()
	assert.Nil(t, r.InvoiceID)
}
