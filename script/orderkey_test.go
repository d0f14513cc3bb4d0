package script

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOrderKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		filename string
		expKey   string
		expOK    bool
	}{
		{name: "ok/integer", filename: "001.jdoe.DDL.create_users.sql", expKey: "1", expOK: true},
		{name: "ok/fraction", filename: "014.2.jdoe.DML.seed.sql", expKey: "14.2", expOK: true},
		{name: "ok/comma_separator", filename: "250101120000,fix.sql", expKey: "250101120000", expOK: true},
		{name: "ok/trailing_zeros", filename: "014.20.x.sql", expKey: "14.2", expOK: true},
		{name: "ok/long_fraction", filename: "100.0625.x.sql", expKey: "100.0625", expOK: true},
		{name: "err/too_short", filename: "01.jdoe.sql"},
		{name: "err/no_separator", filename: "001jdoe.sql"},
		{name: "err/no_number", filename: "readme.sql"},
		{name: "err/only_number", filename: "001"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			key, ok := ParseOrderKey(tt.filename)
			assert.Equal(t, tt.expOK, ok)
			if tt.expOK {
				assert.Equal(t, tt.expKey, key.String())
			} else {
				assert.True(t, key.IsZero())
			}
		})
	}
}

func TestParseDecimal(t *testing.T) {
	t.Parallel()

	k1, err := ParseDecimal(" 14.20 ")
	require.NoError(t, err)
	k2, ok := ParseOrderKey("014.2.a.sql")
	require.True(t, ok)
	assert.True(t, k1.Equal(k2))
	assert.Equal(t, "14.2", k1.String())
	assert.True(t, k1.Decimal().Equal(k2.Decimal()))

	for _, invalid := range []string{"", "abc", "1e3", "-1", "1/2", "1.", ".5", "1.2.3", "+1"} {
		_, err = ParseDecimal(invalid)
		assert.Error(t, err, invalid)
	}
}

func TestOrderKeyCmp(t *testing.T) {
	t.Parallel()

	parse := func(s string) OrderKey {
		k, err := ParseDecimal(s)
		require.NoError(t, err)
		return k
	}

	assert.Equal(t, -1, parse("2").Cmp(parse("10")))
	assert.Equal(t, 1, parse("1.9").Cmp(parse("1.10")), "1.10 is the decimal 1.1, not the 10th revision of 1")
	assert.Equal(t, 1, parse("1.25").Cmp(parse("1.2")))
	assert.Equal(t, 0, parse("007").Cmp(parse("7.0")))
	assert.Equal(t, -1, OrderKey{}.Cmp(parse("0")))
}
