// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package textnorm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDateString(t *testing.T) {
	tests := []struct {
		in         string
		wantDate   string
		wantFormat DateFormat
	}{
		{"9 July 2019", "2019-07-09", FormatFullDate},
		{"28 Nov. 2018", "2018-11-28", FormatFullDate},
		{"9-10 July 2019", "2019-07-09", FormatDateRange},
		{"March 2017", "2017-03", FormatMonthYear},
		{"Sept. 2020", "2020-09", FormatMonthYear},
		{"31 February 2019", "", ""},
		{"Report 2019", "", ""},
		{"", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			date, format := ParseDateString(tt.in)
			assert.Equal(t, tt.wantDate, date)
			assert.Equal(t, tt.wantFormat, format)
		})
	}
}

func TestExtractDateFromTitle(t *testing.T) {
	tests := []struct {
		name       string
		in         string
		wantTitle  string
		wantDate   string
		wantFormat DateFormat
	}{
		{"leading full date", "9 July 2019, Results of the Survey", "Results of the Survey", "2019-07-09", FormatFullDate},
		{"leading date with period", "28 November 2018. Annual Report", "Annual Report", "2018-11-28", FormatFullDate},
		{"trailing parenthetical", "Title of Talk (March 2017)", "Title of Talk", "2017-03", FormatMonthYear},
		{"trailing abbreviated", "Ocean Heat (23 Oct. 2020)", "Ocean Heat", "2020-10-23", FormatFullDate},
		{"middle between colons", "Event Name: 15 June 2018: Subtitle", "Event Name: Subtitle", "2018-06-15", FormatFullDate},
		{"invalid calendar date", "31 February 2019, Something", "31 February 2019, Something", "", ""},
		{"word before year is not a month", "Report 2019 Findings", "Report 2019 Findings", "", ""},
		{"no date", "Attention Is All You Need", "Attention Is All You Need", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			title, date, format := ExtractDateFromTitle(tt.in)
			assert.Equal(t, tt.wantTitle, title)
			assert.Equal(t, tt.wantDate, date)
			assert.Equal(t, tt.wantFormat, format)
		})
	}
}

func TestNormalize(t *testing.T) {
	n := New(EnglishStopwords())
	tests := []struct {
		name       string
		in         string
		aggressive bool
		want       string
	}{
		{"accents dashes underscores", "Café–Münster_2020!", false, "cafe munster 2020"},
		{"non-latin scripts transliterate", "Москва Ελλάδα 北京", false, "moskva ellada bei jing"},
		{"decomposed accents", "Cafe\u0301 Stras\u00dfe", false, "cafe strasse"},
		{"html entity", "Tom &amp; Jerry", false, "tom jerry"},
		{"collapses whitespace", "  Deep   Learning \t Models ", false, "deep learning models"},
		{"aggressive drops stopwords", "The Effects of Climate on the Oceans", true, "effects climate oceans"},
		{"non aggressive keeps stopwords", "The Effects of Climate", false, "the effects of climate"},
		{"empty", "", false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, n.Normalize(tt.in, tt.aggressive))
		})
	}
}

func TestFoldASCII(t *testing.T) {
	assert.Equal(t, "Munster", FoldASCII("Münster"))
	assert.Equal(t, "Lodz", FoldASCII("Łódź"))
	assert.Equal(t, "Moskva", FoldASCII("Москва"))
	assert.Equal(t, "plain", FoldASCII("plain"))
}

func TestNormalize_NoStopwordsInjected(t *testing.T) {
	n := New(StopwordSet{})
	assert.Equal(t, "the effects of climate", n.Normalize("The Effects of Climate", true))
	assert.Equal(t, "the effects of climate", Normalize("The Effects of Climate"))
}

func TestExtractMainTitle(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"colon subtitle", "Deep Learning: A Survey", "Deep Learning"},
		{"bracket note", "Graph Methods [Preprint]", "Graph Methods"},
		{"parenthetical", "Ocean Studies (extended abstract)", "Ocean Studies"},
		{"dash subtitle", "Neural Nets - An Overview", "Neural Nets"},
		{"version suffix", "Results of Analysis v2", "Results of Analysis"},
		{"genre word", "Mapping Soil Carbon Poster", "Mapping Soil Carbon"},
		{"genre word keeps two words", "The Final Draft", "The Final"},
		{"trailing punctuation", "Why Do Birds Sing?", "Why Do Birds Sing"},
		{"report number", "Results of the Flight TM-12345", "Results of the Flight"},
		{"semicolon", "First part; second part", "First part"},
		{"leading date", "9 July 2019, Results of the Survey", "Results of the Survey"},
		{"everything stripped returns original", "[Draft]", "[Draft]"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractMainTitle(tt.in))
		})
	}
}

func TestSanitizeForSearch(t *testing.T) {
	assert.Equal(t, "C and Java", SanitizeForSearch("C++ and {Java}*"))
	assert.Equal(t, "a b c", SanitizeForSearch("a | b ~c^"))
	assert.Equal(t, "", SanitizeForSearch(""))
}

func TestCleanTitleForSearch(t *testing.T) {
	n := New(EnglishStopwords())

	got := n.CleanTitleForSearch("9 July 2019, Results of the Survey: Phase One", false)
	assert.Equal(t, "results of the survey", got)

	got = n.CleanTitleForSearch("9 July 2019, Results of the Survey: Phase One", true)
	assert.Equal(t, "results survey", got)

	assert.Equal(t, "", n.CleanTitleForSearch("", false))
}

func TestCleanTitleForSearch_GenreWordsStopAtTwoWords(t *testing.T) {
	n := New(EnglishStopwords())
	assert.Equal(t, "the final", n.CleanTitleForSearch("The Final Draft: Screenwriting", false))
	assert.Equal(t, "mapping soil carbon", n.CleanTitleForSearch("Mapping Soil Carbon paper abstract", false))
}

func TestCleanTitleForSearch_Idempotent(t *testing.T) {
	n := New(EnglishStopwords())
	titles := []string{
		"9 July 2019, Results of the Survey",
		"Café–Münster_2020! A Study",
		"Mapping Soil Carbon paper abstract",
		"Sea Ice (March 2017)",
		"Event Name: 15 June 2018: Subtitle",
		"Phase-2 Trial of Drug X (revised)",
		"[Draft]",
		"On the Origin of Species",
		"The Final Draft: Screenwriting",
	}
	for _, title := range titles {
		for _, aggressive := range []bool{false, true} {
			once := n.CleanTitleForSearch(title, aggressive)
			twice := n.CleanTitleForSearch(once, aggressive)
			assert.Equal(t, once, twice, "title %q aggressive=%v", title, aggressive)
		}
	}
}

func TestStopwordSet(t *testing.T) {
	en := EnglishStopwords()
	assert.True(t, en.Contains("the"))
	assert.True(t, en.Contains("wouldn't"))
	assert.False(t, en.Contains("climate"))
	assert.Equal(t, en.Len(), EnglishStopwords().Len())

	custom, err := ReadStopwords(strings.NewReader("# domain words\nStudy\n\nanalysis\n"))
	require.NoError(t, err)
	assert.Equal(t, 2, custom.Len())
	assert.True(t, custom.Contains("study"))

	n := New(custom)
	assert.Equal(t, "of soil", n.Normalize("Study of Soil Analysis", true))
}
