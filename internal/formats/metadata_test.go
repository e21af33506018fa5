package formats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fexa-archive/fexa/internal/exam"
)

func TestResolveFromDirectoryName(t *testing.T) {
	// Season letters are romaji initials: h=haru (spring), a=aki (autumn).
	info, err := ResolveExamInfo(Source{Path: "/data/2023_a/text-data.md"}, "")
	require.NoError(t, err)
	assert.Equal(t, 2023, info.Year)
	assert.Equal(t, exam.SeasonAutumn, info.Season)

	info, err = ResolveExamInfo(Source{Path: "/data/2023_h/text-data.md"}, "")
	require.NoError(t, err)
	assert.Equal(t, exam.SeasonSpring, info.Season)
}

func TestResolveFromEraHeading(t *testing.T) {
	cases := []struct {
		content string
		year    int
		season  exam.Season
	}{
		{"基本情報技術者試験 令和5年度 秋期 午前問題", 2023, exam.SeasonAutumn},
		{"平成31年度春期 試験問題", 2019, exam.SeasonSpring},
		{"令和元年度は対象外 令和3年度 春期", 2021, exam.SeasonSpring},
		{"2019年度 秋期", 2019, exam.SeasonAutumn},
	}
	for _, c := range cases {
		info, err := ResolveExamInfo(Source{Path: "/tmp/paper.md"}, c.content)
		require.NoError(t, err, c.content)
		assert.Equal(t, c.year, info.Year, c.content)
		assert.Equal(t, c.season, info.Season, c.content)
	}
}

func TestOverridesWin(t *testing.T) {
	src := Source{
		Path:           "/data/2023_a/text-data.md",
		OverrideYear:   2020,
		OverrideSeason: exam.SeasonSpring,
	}
	info, err := ResolveExamInfo(src, "令和5年度 秋期")
	require.NoError(t, err)
	assert.Equal(t, 2020, info.Year)
	assert.Equal(t, exam.SeasonSpring, info.Season)
}

func TestResolveFailureIsFatal(t *testing.T) {
	_, err := ResolveExamInfo(Source{Path: "/tmp/unknown.md"}, "手がかりのない本文")
	assert.Error(t, err)
}

func TestDetectQuestionType(t *testing.T) {
	assert.Equal(t, exam.TypeAfternoon, DetectQuestionType("令和5年度 秋期 午後問題\n問1 ..."))
	assert.Equal(t, exam.TypeMorning, DetectQuestionType("令和5年度 秋期 午前問題\n問1 ..."))
	assert.Equal(t, exam.TypeMorning, DetectQuestionType("セッションの記載なし"))
}
