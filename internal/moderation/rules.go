package moderation

import (
	"fmt"
	"sort"
	"strings"
)

// Policy kinds accepted in Rule.Policy.
const (
	KindDefault     = ""
	KindAkismet     = "akismet"
	KindAlways      = "always"
	KindNoComments  = "none"
	KindFirstTimers = "first_timers"
)

// Rule is a configured policy for one content type.
type Rule struct {
	Policy  string `yaml:"policy"`
	Options `yaml:",inline"`
}

// NewPolicy builds the policy named by kind.
func NewPolicy(kind string, opts Options, env *Env) (Policy, error) {
	switch strings.ToLower(kind) {
	case KindDefault, "default":
		return NewCommentModerator(opts, env), nil
	case KindAkismet:
		return NewAkismetModerator(opts, env), nil
	case KindAlways:
		return NewAlwaysModerate(opts, env), nil
	case KindNoComments:
		return NewNoComments(opts, env), nil
	case KindFirstTimers:
		if env == nil || env.Comments == nil {
			return nil, fmt.Errorf("policy %q needs a comment store", kind)
		}
		return NewModerateFirstTimers(opts, env), nil
	default:
		return nil, fmt.Errorf("unknown moderation policy %q", kind)
	}
}

// RegisterRules registers one policy per content type label. Every label
// must already be in the content type registry. Either all rules are
// registered or none are.
func (m *Moderator) RegisterRules(rules map[string]Rule, env *Env) error {
	labels := make([]string, 0, len(rules))
	for label := range rules {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	type pending struct {
		model  any
		policy Policy
	}
	var all []pending
	for _, label := range labels {
		ct, err := m.types.Lookup(label)
		if err != nil {
			return fmt.Errorf("moderation rule %s: %w", label, err)
		}
		rule := rules[label]
		p, err := NewPolicy(rule.Policy, rule.Options, env)
		if err != nil {
			return fmt.Errorf("moderation rule %s: %w", label, err)
		}
		all = append(all, pending{model: ct, policy: p})
	}

	for i, r := range all {
		if err := m.Register(r.policy, r.model); err != nil {
			for _, done := range all[:i] {
				_ = m.Unregister(done.model)
			}
			return err
		}
	}
	return nil
}
