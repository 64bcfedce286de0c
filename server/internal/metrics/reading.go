package metrics

import (
	"regexp"
	"strings"
)

// sentenceBoundary matches the whitespace that follows sentence punctuation.
var sentenceBoundary = regexp.MustCompile(`[.!?]\s+`)

// SegmentMetrics are merged into a self-paced reading trial.
type SegmentMetrics struct {
	ReadingTime        float64  `json:"reading_time"`
	ReadingTimePerWord *float64 `json:"reading_time_per_word"`
}

// WordCount returns the number of whitespace delimited tokens in text.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// ReadingTimePerWord divides the response time by the word count. It returns
// nil when there are no words, so callers never see an infinite value.
func ReadingTimePerWord(responseTime float64, wordCount int) *float64 {
	if wordCount <= 0 {
		return nil
	}
	v := responseTime / float64(wordCount)
	return &v
}

// SegmentText splits a text into sentences. The punctuation stays with the
// sentence it ends; empty segments are dropped.
func SegmentText(text string) []string {
	segments := make([]string, 0)
	start := 0
	for _, loc := range sentenceBoundary.FindAllStringIndex(text, -1) {
		// loc[0] is the punctuation mark, keep it in the segment.
		segments = appendSegment(segments, text[start:loc[0]+1])
		start = loc[1]
	}
	return appendSegment(segments, text[start:])
}

func appendSegment(segments []string, s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return segments
	}
	return append(segments, s)
}

// SegmentReadingMetrics computes the metrics of one self-paced reading segment.
func SegmentReadingMetrics(rt float64, segment string) SegmentMetrics {
	return SegmentMetrics{
		ReadingTime:        rt,
		ReadingTimePerWord: ReadingTimePerWord(rt, WordCount(segment)),
	}
}
