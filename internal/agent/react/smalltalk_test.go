package react

import "testing"

func TestIsSmallTalk(t *testing.T) {
	smallTalk := []string{
		"hi",
		"Hello!",
		"hey there",
		"good morning",
		"thanks",
		"Thank you!",
		"bye",
		"how are you?",
		"what's up",
		"ok",
		"sounds good",
	}
	for _, q := range smallTalk {
		if !IsSmallTalk(q) {
			t.Errorf("expected small talk: %q", q)
		}
	}

	substantive := []string{
		"",
		"What are the prerequisites for CMPE 259?",
		"hello, what are the prerequisites for CMPE 259 this fall",
		"where is the financial aid office",
		"library hours",
		"how do I apply for graduation",
	}
	for _, q := range substantive {
		if IsSmallTalk(q) {
			t.Errorf("expected substantive: %q", q)
		}
	}
}
