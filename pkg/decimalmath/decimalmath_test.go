package decimalmath

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		want    string
		wantErr bool
	}{
		{"integer", "42", "42", false},
		{"fraction", "0.000001", "0.000001", false},
		{"exponent", "1e3", "1000", false},
		{"spaces", " 12.5 ", "12.5", false},
		{"empty", "", "", true},
		{"nan", "NaN", "", true},
		{"letters", "abc", "", true},
		{"two dots", "1.2.3", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.value)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidNumber)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got.String())
		})
	}
}

func TestToBaseUnits(t *testing.T) {
	tests := []struct {
		name     string
		display  string
		decimals int32
		want     string
		wantErr  bool
	}{
		{"whole", "12", 6, "12000000", false},
		{"fraction", "1.5", 6, "1500000", false},
		{"smallest unit", "0.000001", 6, "1", false},
		{"excess digits dropped", "1.23456789", 6, "1234567", false},
		{"zero decimals", "7.9", 0, "7", false},
		{"exponent input", "2.5e-3", 6, "2500", false},
		{"below precision", "0.0000001", 6, "0", false},
		{"large", "123456789012345678901234567890.123", 18, "123456789012345678901234567890123000000000000000", false},
		{"negative decimals", "1", -1, "", true},
		{"invalid", "1,5", 6, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToBaseUnits(tt.display, tt.decimals)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidNumber)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestToDisplayUnits(t *testing.T) {
	got, err := ToDisplayUnits("1234567", 6)
	require.NoError(t, err)
	require.Equal(t, "1.234567", got)

	got, err = ToDisplayUnits("1000000", 6)
	require.NoError(t, err)
	require.Equal(t, "1", got)

	got, err = ToDisplayUnits("15", 0)
	require.NoError(t, err)
	require.Equal(t, "15", got)

	_, err = ToDisplayUnits("x", 6)
	require.ErrorIs(t, err, ErrInvalidNumber)
}

func TestRoundTripTruncates(t *testing.T) {
	values := []string{"0", "1", "1.1", "0.123456789", "98765.4321", "1000000.000001", "3.14159265358979"}
	for _, v := range values {
		for _, d := range []int32{0, 2, 6, 18} {
			base, err := ToBaseUnits(v, d)
			require.NoError(t, err)
			back, err := ToDisplayUnits(base, d)
			require.NoError(t, err)

			want := Truncate(decimal.RequireFromString(v), d)
			require.True(t, want.Equal(decimal.RequireFromString(back)), "v=%s d=%d got=%s want=%s", v, d, back, want)
		}
	}
}

func TestTruncateIsFloor(t *testing.T) {
	values := []string{"1.999", "-1.001", "0.5", "-0.5", "123.456", "-123.456", "7"}
	for _, v := range values {
		d := decimal.RequireFromString(v)
		for n := int32(0); n < 4; n++ {
			got := Truncate(d, n)
			require.True(t, got.LessThanOrEqual(d), "truncate(%s, %d) = %s", v, n, got)
		}
	}
	require.Equal(t, "-1.01", Truncate(decimal.RequireFromString("-1.001"), 2).String())
	require.Equal(t, "1.99", Truncate(decimal.RequireFromString("1.999"), 2).String())
}

func TestFormat(t *testing.T) {
	got, err := Format("", 6)
	require.NoError(t, err)
	require.Equal(t, "", got)

	got, err = Format("1.23456789", 4)
	require.NoError(t, err)
	require.Equal(t, "1.2345", got)

	got, err = Format("2", 2)
	require.NoError(t, err)
	require.Equal(t, "2.00", got)

	_, err = Format("twelve", 2)
	require.ErrorIs(t, err, ErrInvalidNumber)

	got, err = FormatUnits("1234567", 6, 2)
	require.NoError(t, err)
	require.Equal(t, "1.23", got)
}

func TestPercentage(t *testing.T) {
	got := Percentage(decimal.NewFromInt(20_000), decimal.NewFromInt(1_020_000))
	require.Equal(t, "1.96", Truncate(got, 2).String())
	require.True(t, Percentage(decimal.NewFromInt(1), decimal.Zero).IsZero())
}
