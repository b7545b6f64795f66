package profile

import (
	"fmt"
)

// childRule bounds how often an element may appear under its parent.
// max < 0 means unbounded.
type childRule struct {
	name     string
	min, max int
}

type elementRule struct {
	attrs    []string
	children []childRule
	// anyOrder lets children appear in any order; otherwise they follow
	// the order of children.
	anyOrder bool
}

var schema = map[string]elementRule{
	"root": {
		children: []childRule{{"controller", 0, -1}},
	},
	"controller": {
		attrs:    []string{"id"},
		children: []childRule{{"configuration", 0, -1}},
	},
	"configuration": {
		attrs: []string{"id"},
		children: []childRule{
			{"trigger", 1, 1},
			{"mouse_options_list", 0, 1},
			{"intensity_list", 0, 1},
			{"button_map", 1, 1},
			{"axis_map", 1, 1},
		},
	},
	"trigger": {},
	"mouse_options_list": {
		children: []childRule{{"mouse", 0, -1}},
	},
	"mouse": {
		attrs: []string{"name", "id", "mode", "buffer_size", "filter"},
	},
	"intensity_list": {
		children: []childRule{{"intensity", 0, -1}},
	},
	"intensity": {
		attrs:    []string{"control"},
		children: []childRule{{"up", 0, 1}, {"down", 0, 1}},
		anyOrder: true,
	},
	"up":   {attrs: []string{"type"}},
	"down": {attrs: []string{"type"}},
	"button_map": {
		children: []childRule{{"button", 0, -1}},
	},
	"axis_map": {
		children: []childRule{{"axis", 0, -1}},
	},
	"button": {
		attrs:    []string{"id"},
		children: []childRule{{"device", 1, 1}, {"event", 1, 1}},
	},
	"axis": {
		attrs:    []string{"id"},
		children: []childRule{{"device", 1, 1}, {"event", 1, 1}},
	},
	"device": {attrs: []string{"type", "name", "id"}},
	"event":  {attrs: []string{"type", "id"}},
}

// validate checks n and its subtree against the schema.
func validate(n *node) error {
	rule, ok := schema[n.name]
	if !ok {
		return invalid(n, "unexpected element %q", n.name)
	}
	for _, a := range rule.attrs {
		if _, ok := n.attr(a); !ok {
			return invalid(n, "missing attribute %q", a)
		}
	}
	var err error
	if rule.anyOrder {
		err = checkCounts(n, rule.children)
	} else {
		err = checkSequence(n, rule.children)
	}
	if err != nil {
		return err
	}
	for _, c := range n.children {
		if err := validate(c); err != nil {
			return err
		}
	}
	return nil
}

func checkSequence(n *node, rules []childRule) error {
	i, count := 0, 0
	for _, c := range n.children {
		for i < len(rules) && rules[i].name != c.name {
			if count < rules[i].min {
				return invalid(n, "missing %s element", rules[i].name)
			}
			i, count = i+1, 0
		}
		if i == len(rules) {
			return invalid(c, "unexpected element %q", c.name)
		}
		count++
		if rules[i].max >= 0 && count > rules[i].max {
			return invalid(c, "too many %s elements", c.name)
		}
	}
	for ; i < len(rules); i, count = i+1, 0 {
		if count < rules[i].min {
			return invalid(n, "missing %s element", rules[i].name)
		}
	}
	return nil
}

func checkCounts(n *node, rules []childRule) error {
	counts := make(map[string]int, len(rules))
	for _, c := range n.children {
		counts[c.name]++
	}
	for name := range counts {
		found := false
		for _, r := range rules {
			if r.name == name {
				found = true
				break
			}
		}
		if !found {
			return invalid(n, "unexpected element %q", name)
		}
	}
	for _, r := range rules {
		if counts[r.name] < r.min {
			return invalid(n, "missing %s element", r.name)
		}
		if r.max >= 0 && counts[r.name] > r.max {
			return invalid(n, "too many %s elements", r.name)
		}
	}
	return nil
}

func invalid(n *node, format string, args ...any) error {
	return &LoadError{Path: n.path, Err: fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))}
}
