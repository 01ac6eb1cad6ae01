package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeStringValidate(t *testing.T) {
	valid := []string{"00:00", "09:30", "23:59", "24:00"}
	for _, s := range valid {
		assert.NoError(t, TimeString(s).Validate(), "%q must be valid", s)
	}

	invalid := []string{"", "9:30", "09:3", "25:00", "24:01", "09:60", "09.30", "ab:cd"}
	for _, s := range invalid {
		assert.Error(t, TimeString(s).Validate(), "%q must be invalid", s)
	}
}

func TestTimeStringMinutes(t *testing.T) {
	m, err := TimeString("09:30").Minutes()
	require.NoError(t, err)
	assert.Equal(t, 570, m)

	m, err = TimeString("00:00").Minutes()
	require.NoError(t, err)
	assert.Equal(t, 0, m)
}

func TestTimeStringAddMinutes(t *testing.T) {
	ts, err := TimeString("09:30").AddMinutes(45)
	require.NoError(t, err)
	assert.Equal(t, TimeString("10:15"), ts)

	// Выход за полночь должен отклоняться
	_, err = TimeString("23:30").AddMinutes(60)
	assert.Error(t, err)

	// Ровно до полуночи допустимо
	ts, err = TimeString("23:30").AddMinutes(30)
	require.NoError(t, err)
	assert.Equal(t, TimeString("24:00"), ts)
}

func TestTimeStringComparisons(t *testing.T) {
	assert.True(t, TimeString("09:00").IsBefore("10:00"))
	assert.False(t, TimeString("10:00").IsBefore("10:00"))
	assert.True(t, TimeString("10:01").IsAfter("10:00"))
	// Лексикографическое сравнение корректно на фиксированной ширине
	assert.True(t, TimeString("09:59").IsBefore("10:00"))
}

func TestTimeStringAt(t *testing.T) {
	date := time.Date(2025, 6, 10, 17, 45, 12, 0, time.UTC)
	at, err := TimeString("09:30").At(date)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 6, 10, 9, 30, 0, 0, time.UTC), at)
}

func TestNewTimeStringFromMinutes(t *testing.T) {
	ts, err := NewTimeStringFromMinutes(570)
	require.NoError(t, err)
	assert.Equal(t, TimeString("09:30"), ts)

	_, err = NewTimeStringFromMinutes(-1)
	assert.Error(t, err)
	_, err = NewTimeStringFromMinutes(24*60 + 1)
	assert.Error(t, err)
}

func TestTimeStringScan(t *testing.T) {
	var ts TimeString
	require.NoError(t, ts.Scan("09:30"))
	assert.Equal(t, TimeString("09:30"), ts)

	require.NoError(t, ts.Scan([]byte("10:15")))
	assert.Equal(t, TimeString("10:15"), ts)

	assert.Error(t, ts.Scan(42))
}
