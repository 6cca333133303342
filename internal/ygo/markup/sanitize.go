package markup

import "github.com/microcosm-cc/bluemonday"

// NewPolicy returns the policy applied to post content before conversion.
// It is the UGC policy plus the classes and data attributes that
// hand-written decklist blocks use.
func NewPolicy() *bluemonday.Policy {
	policy := bluemonday.UGCPolicy()
	policy.AllowAttrs("class").OnElements("div", "p", "span", "ul", "ol", "li")
	policy.AllowDataAttributes()
	policy.AllowAttrs("loading").OnElements("img")
	policy.RequireNoFollowOnLinks(true)
	return policy
}

// Sanitize strips unsafe markup from post HTML.
func Sanitize(policy *bluemonday.Policy, src []byte) []byte {
	if policy == nil {
		policy = NewPolicy()
	}
	return policy.SanitizeBytes(src)
}
