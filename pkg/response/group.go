package response

import (
	"fmt"
	"strconv"
	"strings"
)

// GroupStats is the payload of a 211 GROUP reply:
//
//	211 <count> <low> <high> <group>
type GroupStats struct {
	Count int64 // Estimated number of articles
	Low   int64 // Reported low water mark
	High  int64 // Reported high water mark
	Name  string
}

// GroupStats parses the numbers out of a GROUP (or LISTGROUP) status line.
func (r *Response) GroupStats() (GroupStats, error) {
	fields := strings.Fields(r.status.Message)
	if len(fields) < 3 {
		return GroupStats{}, &MalformedError{Line: r.line, Reason: "group reply needs count, low and high"}
	}

	var nums [3]int64
	for i := range nums {
		n, err := strconv.ParseInt(fields[i], 10, 64)
		if err != nil {
			return GroupStats{}, &MalformedError{Line: r.line, Reason: fmt.Sprintf("field %d %q is not a number", i+1, fields[i])}
		}
		nums[i] = n
	}

	gs := GroupStats{Count: nums[0], Low: nums[1], High: nums[2]}
	if len(fields) > 3 {
		gs.Name = fields[3]
	}
	return gs, nil
}

// ArticleInfo is the payload of ARTICLE, HEAD, BODY, STAT, NEXT and LAST
// replies:
//
//	22x <number> <message-id> [text]
type ArticleInfo struct {
	Number    int64 // 0 when the article was selected by message-id
	MessageID string
}

// ArticleInfo parses the article number and message-id from the status line.
func (r *Response) ArticleInfo() (ArticleInfo, error) {
	fields := strings.Fields(r.status.Message)
	if len(fields) < 2 {
		return ArticleInfo{}, &MalformedError{Line: r.line, Reason: "article reply needs number and message-id"}
	}
	n, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return ArticleInfo{}, &MalformedError{Line: r.line, Reason: fmt.Sprintf("article number %q is not a number", fields[0])}
	}
	if !strings.HasPrefix(fields[1], "<") || !strings.HasSuffix(fields[1], ">") {
		return ArticleInfo{}, &MalformedError{Line: r.line, Reason: fmt.Sprintf("%q is not a message-id", fields[1])}
	}
	return ArticleInfo{Number: n, MessageID: fields[1]}, nil
}
