package extract

import (
	"regexp"
	"sort"
	"strings"
)

var emailRe = regexp.MustCompile(`(?i)\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)

// Tried in order; the stricter national shape wins over the loose
// international one so "(231) 456-7890" keeps its parens.
var phoneRes = []*regexp.Regexp{
	regexp.MustCompile(`\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}`),
	regexp.MustCompile(`\+?\d{1,3}[-.\s]?\(?\d{1,4}\)?[-.\s]?\d{1,4}[-.\s]?\d{1,9}`),
}

var nonDigitRe = regexp.MustCompile(`\D`)

// Substrings that mark an email match as a false positive (asset names,
// placeholder addresses, tracking senders).
var invalidEmailParts = []string{
	"example.com", "@example", ".png", ".jpg", ".gif",
	"sampleemail", "youremail", "noreply", "wixpress", "sentry", "qodeinteractive",
}

// Hosts that are never a business's own website.
var excludedWebsiteDomains = []string{
	"google", "facebook", "instagram", "youtube", "linkedin",
	"twitter", "gstatic", "googleapis", "schema.org",
}

// Emails returns the distinct valid emails found in text, lowercased,
// in order of first appearance.
func Emails(text string) []string {
	var out []string
	seen := map[string]bool{}
	for _, m := range emailRe.FindAllString(text, -1) {
		e := strings.ToLower(m)
		if seen[e] || invalidEmail(e) {
			continue
		}
		seen[e] = true
		out = append(out, e)
	}
	return out
}

func invalidEmail(e string) bool {
	for _, p := range invalidEmailParts {
		if strings.Contains(e, p) {
			return true
		}
	}
	return false
}

// Phone returns the first phone-shaped match in text whose digit count is
// plausible. minDigits guards against matching bare numbers; 15 is the
// E.164 ceiling. A run of one repeated digit is rejected.
func Phone(text string, minDigits int) (string, bool) {
	if minDigits <= 0 {
		minDigits = 10
	}
	for _, re := range phoneRes {
		for _, m := range re.FindAllString(text, -1) {
			digits := nonDigitRe.ReplaceAllString(m, "")
			if len(digits) < minDigits || len(digits) > 15 {
				continue
			}
			if distinctDigits(digits) < 2 {
				continue
			}
			return strings.TrimSpace(m), true
		}
	}
	return "", false
}

func distinctDigits(s string) int {
	set := map[rune]bool{}
	for _, r := range s {
		set[r] = true
	}
	return len(set)
}

// CleanWebsiteURL strips query and fragment from a listing's website link
// and rejects links into directory/social platforms. Returns "" when the
// link is unusable.
func CleanWebsiteURL(href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	lower := strings.ToLower(href)
	for _, d := range excludedWebsiteDomains {
		if strings.Contains(lower, d) {
			return ""
		}
	}
	if i := strings.IndexByte(href, '?'); i >= 0 {
		href = href[:i]
	}
	if i := strings.IndexByte(href, '#'); i >= 0 {
		href = href[:i]
	}
	return strings.TrimSuffix(href, "/")
}

// MergeEmails unions two email lists, lowercased and sorted.
func MergeEmails(a, b []string) []string {
	set := map[string]bool{}
	for _, e := range a {
		set[strings.ToLower(e)] = true
	}
	for _, e := range b {
		set[strings.ToLower(e)] = true
	}
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for e := range set {
		out = append(out, e)
	}
	sort.Strings(out)
	return out
}
