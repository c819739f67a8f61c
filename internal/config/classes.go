package config

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// ClassList is a list of WM_CLASS names. It accepts either:
//
//	exclude_classes: Polybar
//
// or:
//
//	exclude_classes:
//	  - Polybar
//	  - tint2
type ClassList []string

func (l *ClassList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		if value.Tag != "!!str" {
			return fmt.Errorf("class list must be a string or list of strings")
		}
		*l = ClassList{strings.TrimSpace(value.Value)}
		return nil
	case yaml.SequenceNode:
		out := make(ClassList, 0, len(value.Content))
		for _, item := range value.Content {
			if item.Kind != yaml.ScalarNode || item.Tag != "!!str" {
				return fmt.Errorf("class entries must be strings")
			}
			out = append(out, strings.TrimSpace(item.Value))
		}
		*l = out
		return nil
	default:
		return fmt.Errorf("class list must be a string or list of strings")
	}
}

// Contains reports whether class is in the list, ignoring case.
func (l ClassList) Contains(class string) bool {
	for _, c := range l {
		if strings.EqualFold(c, class) {
			return true
		}
	}
	return false
}

// Strings returns a copy of the list as plain strings.
func (l ClassList) Strings() []string {
	return append([]string(nil), l...)
}
