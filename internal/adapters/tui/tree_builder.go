package tui

const maxTreeDepth = 32

// TreeNode places a rule in the dependency tree. A rule reachable from several
// targets appears once per path and all its occurrences share one RuleNode.
type TreeNode struct {
	Rule     *RuleNode
	Parent   *TreeNode
	Children []*TreeNode
	Depth    int
	Expanded bool
}

// buildTree roots a tree at every target, following the dependencies of the plan.
// Root nodes start expanded.
func buildTree(targets []string, deps map[string][]string, rules map[string]*RuleNode) []*TreeNode {
	roots := make([]*TreeNode, 0, len(targets))
	for _, target := range targets {
		if root := buildSubtree(target, deps, rules, nil, 0); root != nil {
			root.Expanded = true
			roots = append(roots, root)
		}
	}
	return roots
}

func buildSubtree(name string, deps map[string][]string, rules map[string]*RuleNode, parent *TreeNode, depth int) *TreeNode {
	rule := rules[name]
	if rule == nil || depth > maxTreeDepth {
		return nil
	}
	node := &TreeNode{Rule: rule, Parent: parent, Depth: depth}
	for _, dep := range deps[name] {
		if child := buildSubtree(dep, deps, rules, node, depth+1); child != nil {
			node.Children = append(node.Children, child)
		}
	}
	return node
}

// flattenTree lists the visible nodes in display order.
func flattenTree(roots []*TreeNode) []*TreeNode {
	var flat []*TreeNode
	var walk func(*TreeNode)
	walk = func(n *TreeNode) {
		flat = append(flat, n)
		if n.Expanded {
			for _, c := range n.Children {
				walk(c)
			}
		}
	}
	for _, r := range roots {
		walk(r)
	}
	return flat
}

// expandTo expands every ancestor of the first occurrence of name and reports whether
// the rule was found.
func expandTo(roots []*TreeNode, name string) bool {
	var find func(*TreeNode) *TreeNode
	find = func(n *TreeNode) *TreeNode {
		if n.Rule.Name == name {
			return n
		}
		for _, c := range n.Children {
			if hit := find(c); hit != nil {
				return hit
			}
		}
		return nil
	}
	for _, r := range roots {
		if hit := find(r); hit != nil {
			for p := hit.Parent; p != nil; p = p.Parent {
				p.Expanded = true
			}
			return true
		}
	}
	return false
}
