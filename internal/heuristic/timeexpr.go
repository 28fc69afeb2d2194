package heuristic

import (
	"regexp"
	"strconv"
	"strings"
)

// Time expression grammar: "90 минут", "2 часа", "полтора часа",
// "два часа", "полчаса", "30 мин".
var (
	digitTimeRe = regexp.MustCompile(`(?i)(\d+)\s*(час(?:а|ов)?|ч\.?|минут(?:а|ы|у)?|мин\.?|секунд(?:а|ы|у)?|сек\.?)`)
	wordTimeRe  = regexp.MustCompile(`(?i)(один|одну|два|две|три|четыре|пять|шесть|семь|восемь|девять|десять|полтора)\s*(час(?:а|ов)?|минут(?:ы|у)?|мин\.?)`)
	halfHourRe  = regexp.MustCompile(`(?i)полчаса`)
)

// numberWords maps spelled-out small numbers to values. "полтора" is
// handled as 1.5 via a minute multiplier.
var numberWords = map[string]int{
	"один": 1, "одну": 1,
	"два": 2, "две": 2,
	"три": 3, "четыре": 4, "пять": 5,
	"шесть": 6, "семь": 7, "восемь": 8,
	"девять": 9, "десять": 10,
}

// extractMinutes pulls an explicit duration out of a segment. The second
// return reports whether a duration was found.
func extractMinutes(segment string) (int, bool) {
	if m := digitTimeRe.FindStringSubmatch(segment); m != nil {
		value, err := strconv.Atoi(m[1])
		if err == nil {
			return toMinutes(value, m[2]), true
		}
	}
	if m := wordTimeRe.FindStringSubmatch(segment); m != nil {
		word := strings.ToLower(m[1])
		if word == "полтора" {
			if hasPrefixFold(m[2], "час") {
				return 90, true
			}
			return 2, true
		}
		if value, ok := numberWords[word]; ok {
			return toMinutes(value, m[2]), true
		}
	}
	if halfHourRe.MatchString(segment) {
		return 30, true
	}
	return 0, false
}

// toMinutes converts a value with a Russian unit to minutes.
// Sub-minute durations round up to one minute.
func toMinutes(value int, unit string) int {
	switch {
	case hasPrefixFold(unit, "час") || hasPrefixFold(unit, "ч"):
		return value * 60
	case hasPrefixFold(unit, "мин"):
		return value
	case hasPrefixFold(unit, "сек"):
		m := value / 60
		if m < 1 {
			return 1
		}
		return m
	}
	return value
}

// stripTimeExpressions removes duration phrases from an action description.
func stripTimeExpressions(segment string) string {
	segment = digitTimeRe.ReplaceAllString(segment, "")
	segment = wordTimeRe.ReplaceAllString(segment, "")
	segment = halfHourRe.ReplaceAllString(segment, "")
	return segment
}

// hasPrefixFold is a case-insensitive strings.HasPrefix.
func hasPrefixFold(s, prefix string) bool {
	return strings.HasPrefix(strings.ToLower(s), prefix)
}
