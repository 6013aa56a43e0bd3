// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Daco Labs

package xschema

import "strings"

// DetectContainers finds collection wrappers: parent paths whose only declared child
// may repeat. Parents with two or more distinct children never qualify.
func DetectContainers(s *Schema) ContainerMap {
	children := make(map[string][]string)
	var parents []string
	for _, path := range s.paths {
		parent := ParentPath(path)
		if parent == "" {
			continue
		}
		if _, seen := children[parent]; !seen {
			parents = append(parents, parent)
		}
		children[parent] = append(children[parent], path)
	}

	containers := make(ContainerMap)
	for _, parent := range parents {
		list := children[parent]
		if len(list) != 1 {
			continue
		}
		child := s.Constraints[list[0]]
		if !child.Repeats() {
			continue
		}
		wrapper, ok := s.Constraints[parent]
		if !ok {
			continue
		}
		lower := strings.ToLower(child.Name)
		containers[lower] = Container{Wrapper: wrapper.Name, Child: lower}
	}
	return containers
}

// IsContainer reports whether lower names a repeated child registered under a wrapper.
func (m ContainerMap) IsContainer(lower string) bool {
	_, ok := m[lower]
	return ok
}
