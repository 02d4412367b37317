// utils/dates_test.go
package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	_, err := ParseDate("2030-06-10")
	assert.NoError(t, err)

	for _, bad := range []string{"", "10-06-2030", "2030/06/10", "2030-13-01", "tomorrow"} {
		_, err := ParseDate(bad)
		assert.Error(t, err, bad)
	}
}

func TestParseClock(t *testing.T) {
	_, err := ParseClock("09:30")
	assert.NoError(t, err)

	for _, bad := range []string{"", "9:3", "25:00", "09:61", "0930"} {
		_, err := ParseClock(bad)
		assert.Error(t, err, bad)
	}
}

func TestAddDays(t *testing.T) {
	got, err := AddDays("2030-06-10", 30)
	require.NoError(t, err)
	assert.Equal(t, "2030-07-10", got)

	got, err = AddDays("2030-12-31", 1)
	require.NoError(t, err)
	assert.Equal(t, "2031-01-01", got)

	got, err = AddDays("2030-06-10", -1)
	require.NoError(t, err)
	assert.Equal(t, "2030-06-09", got)

	_, err = AddDays("junk", 1)
	assert.Error(t, err)
}
