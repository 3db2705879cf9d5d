package react

import (
	"regexp"
	"strings"
)

var smallTalkPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^(hi|hey|hello|yo|howdy)\b`),
	regexp.MustCompile(`^good (morning|afternoon|evening)\b`),
	regexp.MustCompile(`^(thanks|thank you|thx|ty)\b`),
	regexp.MustCompile(`^(bye|goodbye|see you|take care)\b`),
	regexp.MustCompile(`^(how are you|what'?s up|who are you)\b`),
	regexp.MustCompile(`^(ok|okay|cool|great|nice|got it|sounds good)[.!]?$`),
}

// IsSmallTalk reports whether a query needs no lookup before a final answer.
// Only short conversational openers qualify; anything carrying real words
// is treated as substantive so the grounding rule applies.
func IsSmallTalk(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	q = strings.Trim(q, "?!. ")
	if q == "" {
		return false
	}
	if len(strings.Fields(q)) > 5 {
		return false
	}
	for _, re := range smallTalkPatterns {
		if re.MatchString(q) {
			return true
		}
	}
	return false
}
