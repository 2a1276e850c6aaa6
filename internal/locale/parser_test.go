package locale

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type ParserTestSuite struct {
	suite.Suite
}

func TestParserSuite(t *testing.T) {
	suite.Run(t, new(ParserTestSuite))
}

func (s *ParserTestSuite) TestParseDate_Valid() {
	testCases := []struct {
		name     string
		input    string
		expected time.Time
	}{
		{"four digit year", "15.01.2024", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)},
		{"two digit year", "15.01.24", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)},
		{"single digit day and month", "1.2.2023", time.Date(2023, 2, 1, 0, 0, 0, 0, time.UTC)},
		{"surrounding whitespace", "  31.12.2022 ", time.Date(2022, 12, 31, 0, 0, 0, 0, time.UTC)},
		{"leap day", "29.02.2024", time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			date, err := ParseDate(tc.input)
			s.Require().NoError(err)
			s.True(tc.expected.Equal(date), "got %s", date)
		})
	}
}

func (s *ParserTestSuite) TestParseDate_Malformed() {
	inputs := []string{
		"",
		"2024-01-15",
		"15/01/2024",
		"01.15.2024",
		"31.02.2024",
		"15.01.202",
		"15.01.20245",
		"aa.bb.cccc",
		"15.01",
		"15.01.2024.1",
	}

	for _, input := range inputs {
		s.Run(input, func() {
			_, err := ParseDate(input)
			s.ErrorIs(err, ErrMalformedDate)
		})
	}
}

func (s *ParserTestSuite) TestParseDate_YearVariantsAgree() {
	short, err := ParseDate("03.07.25")
	s.Require().NoError(err)
	long, err := ParseDate("03.07.2025")
	s.Require().NoError(err)

	s.True(short.Equal(long))
	s.Equal("03.07.2025", FormatDate(short))
}

func (s *ParserTestSuite) TestParseAmount_Valid() {
	testCases := []struct {
		input    string
		expected string
	}{
		{"-45,67", "-45.67"},
		{"2.500,00", "2500"},
		{"1.234,56", "1234.56"},
		{"+12,3", "12.3"},
		{"0,01", "0.01"},
		{"100", "100"},
		{"1 234,56", "1234.56"},
		{"1\u00a0234,56", "1234.56"},
		{"1\u202f234,56", "1234.56"},
		{"- 3,50", "-3.5"},
		{",99", "0.99"},
		{"12,345", "12.35"},
	}

	for _, tc := range testCases {
		s.Run(tc.input, func() {
			amount, err := ParseAmount(tc.input)
			s.Require().NoError(err)
			s.True(decimal.RequireFromString(tc.expected).Equal(amount), "got %s", amount)
		})
	}
}

func (s *ParserTestSuite) TestParseAmount_Malformed() {
	inputs := []string{
		"",
		"   ",
		"-",
		"1,234,56",
		"12a,00",
		"abc",
		"12,",
		"--5,00",
		"1e5",
	}

	for _, input := range inputs {
		s.Run(input, func() {
			_, err := ParseAmount(input)
			s.ErrorIs(err, ErrMalformedAmount)
		})
	}
}

func (s *ParserTestSuite) TestFormatAmount() {
	testCases := []struct {
		input    string
		expected string
	}{
		{"1234.56", "1.234,56"},
		{"-45.67", "-45,67"},
		{"0", "0,00"},
		{"1000000", "1.000.000,00"},
		{"999.999", "1.000,00"},
		{"-0.001", "0,00"},
		{"12.5", "12,50"},
	}

	for _, tc := range testCases {
		s.Run(tc.input, func() {
			s.Equal(tc.expected, FormatAmount(decimal.RequireFromString(tc.input)))
		})
	}
}

func TestAmountRoundTrip(t *testing.T) {
	inputs := []string{"1.234,56", "-45,67", "0,00", "2.500,00", "-1.000.000,01", "7,10"}

	for _, input := range inputs {
		amount, err := ParseAmount(input)
		require.NoError(t, err)
		assert.Equal(t, input, FormatAmount(amount))
	}
}

func TestParseBool(t *testing.T) {
	for _, v := range []string{"Ja", "ja", "YES", "true", "1", "Wahr", " ja "} {
		assert.True(t, ParseBool(v), v)
	}
	for _, v := range []string{"", "Nein", "no", "false", "0", "vielleicht"} {
		assert.False(t, ParseBool(v), v)
	}
}
