package person

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestAgeAt_BirthdayNotYetPassed(t *testing.T) {
	birth := date(2015, time.June, 15)

	// Day before the birthday.
	assert.Equal(t, 9, AgeAt(birth, date(2025, time.June, 14)))
	// On the birthday the new age starts.
	assert.Equal(t, 10, AgeAt(birth, date(2025, time.June, 15)))
	// Day after.
	assert.Equal(t, 10, AgeAt(birth, date(2025, time.June, 16)))
}

func TestAgeAt_EarlierMonth(t *testing.T) {
	birth := date(2018, time.December, 1)
	assert.Equal(t, 6, AgeAt(birth, date(2025, time.March, 10)))
}

func TestClassifyAge_Thresholds(t *testing.T) {
	cases := []struct {
		age  int
		want Band
	}{
		{0, BandGenesis},
		{5, BandGenesis},
		{6, BandExodus},
		{7, BandExodus},
		{8, BandPsalms},
		{9, BandPsalms},
		{10, BandProverbs},
		{11, BandProverbs},
		{12, BandRevelation},
		{13, BandRevelation},
		{14, BandHighSchoolers},
		{17, BandHighSchoolers},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, ClassifyAge(tc.age), "age %d", tc.age)
	}
}

func TestClassifyBirthDate_BoundaryAroundBirthday(t *testing.T) {
	// Child turns 6 on 2025-05-20: Genesis the day before, Exodus after.
	birth := date(2019, time.May, 20)

	assert.Equal(t, BandGenesis, ClassifyBirthDate(birth, date(2025, time.May, 19)))
	assert.Equal(t, BandExodus, ClassifyBirthDate(birth, date(2025, time.May, 20)))
}

func TestParseBand(t *testing.T) {
	for i, name := range BandNames() {
		b, err := ParseBand(name)
		require.NoError(t, err)
		assert.Equal(t, Band(i), b)
		assert.Equal(t, name, b.String())
	}

	_, err := ParseBand("Numbers")
	assert.ErrorIs(t, err, ErrInvalidBand)
}

func TestBandOrdinal_StableOrder(t *testing.T) {
	assert.Equal(t, 0, BandGenesis.Ordinal())
	assert.Equal(t, 5, BandHighSchoolers.Ordinal())
	assert.True(t, BandExodus.Ordinal() < BandPsalms.Ordinal())
}

func TestApproximateBirthDate(t *testing.T) {
	ref := date(2025, time.March, 10)

	bd, err := ApproximateBirthDate(7, ref)
	require.NoError(t, err)
	assert.Equal(t, date(2018, time.March, 10), bd)

	// Synthesized date classifies back to the same age.
	assert.Equal(t, 7, AgeAt(bd, ref))
}

func TestApproximateBirthDate_LeapDayFallback(t *testing.T) {
	ref := date(2024, time.February, 29)

	bd, err := ApproximateBirthDate(5, ref)
	require.NoError(t, err)
	// 2019 has no Feb 29; fallback subtracts 5*365 days.
	assert.Equal(t, ref.AddDate(0, 0, -5*365), bd)
}

func TestApproximateBirthDate_OutOfRange(t *testing.T) {
	ref := date(2025, time.March, 10)

	_, err := ApproximateBirthDate(-1, ref)
	assert.ErrorIs(t, err, ErrAgeOutOfRange)

	_, err = ApproximateBirthDate(121, ref)
	assert.ErrorIs(t, err, ErrAgeOutOfRange)
}
