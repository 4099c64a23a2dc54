package manifest

import (
	"regexp"
	"strconv"
)

// Subject is what can be recovered from a yEnc-style subject line.
type Subject struct {
	Name  string
	Size  int64
	Part  int
	Total int
}

// Quoted name, then an optional byte count, optional yEnc marker, optional
// (part/total) counter and optional trailing byte count.
var subjectRegex = regexp.MustCompile(`"([^"]+)"\s*(?:(\d+)\s+)?(?:yEnc\s*)?(?:\((\d+)/(\d+)\)\s*)?(?:(\d+)\b)?`)

func ParseSubject(subject string) (Subject, bool) {
	match := subjectRegex.FindStringSubmatch(subject)
	if match == nil {
		return Subject{}, false
	}

	s := Subject{Name: match[1]}
	if match[2] != "" {
		s.Size, _ = strconv.ParseInt(match[2], 10, 64)
	} else if match[5] != "" {
		s.Size, _ = strconv.ParseInt(match[5], 10, 64)
	}
	if match[3] != "" {
		s.Part, _ = strconv.Atoi(match[3])
		s.Total, _ = strconv.Atoi(match[4])
	}
	return s, true
}
