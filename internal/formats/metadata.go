package formats

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/fexa-archive/fexa/internal/exam"
)

// Directory naming convention for scanned papers: <year>_<season letter>,
// e.g. 2023_a. The letters are romaji initials: h (haru) is the spring
// sitting, a (aki) the autumn one.
var dirPattern = regexp.MustCompile(`(\d{4})_([ah])`)

// In-document era-calendar heading, e.g. 令和5年度 秋期 or 平成31年度春期.
var eraPattern = regexp.MustCompile(`([平成令和]*\d+年度)\s*(春期|秋期)`)

var eraDigits = regexp.MustCompile(`\d+`)

// ResolveExamInfo determines (year, season) for a source document.
// Caller overrides win; then the directory name; then the era heading in
// the text. No match is fatal for the whole document: without an exam
// identity nothing can be imported.
func ResolveExamInfo(src Source, content string) (ExamInfo, error) {
	info, ok := resolveFromPath(src.Path)
	if !ok {
		info, ok = resolveFromContent(content)
	}
	if src.OverrideYear != 0 {
		info.Year = src.OverrideYear
		ok = ok || src.OverrideSeason != ""
	}
	if src.OverrideSeason != "" {
		info.Season = src.OverrideSeason
	}
	if !ok || info.Year == 0 || info.Season == "" {
		return ExamInfo{}, fmt.Errorf("cannot determine exam year/season for %s", filepath.Base(src.Path))
	}
	return info, nil
}

func resolveFromPath(path string) (ExamInfo, bool) {
	m := dirPattern.FindStringSubmatch(filepath.Dir(path))
	if m == nil {
		return ExamInfo{}, false
	}
	year, _ := strconv.Atoi(m[1])
	season := exam.SeasonSpring
	if m[2] == "a" {
		season = exam.SeasonAutumn
	}
	return ExamInfo{Year: year, Season: season}, true
}

func resolveFromContent(content string) (ExamInfo, bool) {
	m := eraPattern.FindStringSubmatch(content)
	if m == nil {
		return ExamInfo{}, false
	}
	year, err := eraYear(m[1])
	if err != nil {
		return ExamInfo{}, false
	}
	return ExamInfo{Year: year, Season: exam.Season(m[2])}, true
}

// eraYear converts a 年度 string to a Gregorian year: 平成N → N+1988,
// 令和N → N+2018, a bare Arabic year is taken as-is.
func eraYear(s string) (int, error) {
	digits := eraDigits.FindString(s)
	if digits == "" {
		return 0, fmt.Errorf("no year digits in %q", s)
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, err
	}
	switch {
	case strings.Contains(s, "平成"):
		return n + 1988, nil
	case strings.Contains(s, "令和"):
		return n + 2018, nil
	default:
		return n, nil
	}
}
