package alethe

import "fmt"

// Rewrite is the elaborator's single extension point (spec.md §4.F): given
// a node whose dependencies have already been elaborated, it returns the
// node to install in its place (itself, unchanged, or a replacement).
// Rewrite rules type-switch on the node and on *StepNode.Rule, returning
// every non-matching node unchanged — the same shape as
// original_source/carcara/src/elaborator/mod.rs's `elaborate` closure.
type Rewrite func(pool *Pool, node ProofNode) (ProofNode, error)

// Identity is the no-op Rewrite: Elaborate with Identity performs the
// traversal and rebuilds every node without changing anything, which is
// how the *Elaborator identity* property is exercised in tests.
func Identity(_ *Pool, node ProofNode) (ProofNode, error) { return node, nil }

// ComposeRewrites runs each rewrite in order, threading one's output into
// the next's input, so that several rules (e.g. trans normalization
// followed by resolution uncrowding) can be applied in a single pass.
func ComposeRewrites(rewrites ...Rewrite) Rewrite {
	return func(pool *Pool, node ProofNode) (ProofNode, error) {
		cur := node
		for _, r := range rewrites {
			next, err := r(pool, cur)
			if err != nil {
				return nil, err
			}
			cur = next
		}
		return cur, nil
	}
}

type workItem struct {
	node ProofNode
	done bool
}

type mutator struct {
	pool        *Pool
	rewrite     Rewrite
	cache       map[ProofNode]ProofNode
	didOutbound map[ProofNode]bool
}

// Elaborate performs a single memoized post-order pass over the proof DAG
// rooted at root, applying rewrite to every node only after its
// dependencies have themselves been elaborated (spec.md §4.F). It mirrors
// original_source/carcara/src/elaborator/mod.rs's `mutate` helper,
// including its iterative, explicit-stack traversal, so that deep proof
// graphs cannot overflow the goroutine stack.
func Elaborate(pool *Pool, root ProofNode, rewrite Rewrite) (ProofNode, error) {
	if rewrite == nil {
		rewrite = Identity
	}
	m := &mutator{pool: pool, rewrite: rewrite, cache: map[ProofNode]ProofNode{}, didOutbound: map[ProofNode]bool{}}
	if err := m.run(root); err != nil {
		return nil, err
	}
	return m.cache[root], nil
}

func (m *mutator) run(root ProofNode) error {
	todo := []workItem{{root, false}}
	for len(todo) > 0 {
		cur := todo[len(todo)-1]
		todo = todo[:len(todo)-1]
		if _, ok := m.cache[cur.node]; ok {
			continue
		}
		switch n := cur.node.(type) {
		case *AssumeNode:
			mutated, err := m.rewrite(m.pool, n)
			if err != nil {
				return err
			}
			m.cache[cur.node] = mutated

		case *StepNode:
			if !cur.done {
				todo = append(todo, workItem{cur.node, true})
				var deps []ProofNode
				for _, p := range n.Premises {
					deps = append(deps, p.Node)
				}
				for _, p := range n.Discharge {
					deps = append(deps, p.Node)
				}
				if n.PreviousStep != nil {
					deps = append(deps, n.PreviousStep)
				}
				for i := len(deps) - 1; i >= 0; i-- {
					if _, ok := m.cache[deps[i]]; !ok {
						todo = append(todo, workItem{deps[i], false})
					}
				}
				continue
			}
			premises := make([]PremiseNode, len(n.Premises))
			for i, p := range n.Premises {
				premises[i] = PremiseNode{Depth: p.Depth, Node: m.cache[p.Node]}
			}
			discharge := make([]PremiseNode, len(n.Discharge))
			for i, p := range n.Discharge {
				discharge[i] = PremiseNode{Depth: p.Depth, Node: m.cache[p.Node]}
			}
			var prev ProofNode
			if n.PreviousStep != nil {
				prev = m.cache[n.PreviousStep]
			}
			rebuilt := &StepNode{
				NodeID: n.NodeID, NodeDepth: n.NodeDepth, ClauseTerms: n.ClauseTerms, Rule: n.Rule,
				Premises: premises, Args: n.Args, Discharge: discharge, PreviousStep: prev,
			}
			mutated, err := m.rewrite(m.pool, rebuilt)
			if err != nil {
				return err
			}
			m.cache[cur.node] = mutated

		case *SubproofNode:
			if !cur.done {
				if !m.didOutbound[cur.node] {
					m.didOutbound[cur.node] = true
					todo = append(todo, workItem{cur.node, false})
					for i := len(n.OutboundPremises) - 1; i >= 0; i-- {
						todo = append(todo, workItem{n.OutboundPremises[i].Node, false})
					}
					continue
				}
				todo = append(todo, workItem{cur.node, true})
				todo = append(todo, workItem{n.LastStep, false})
				continue
			}
			rebuiltLast := m.cache[n.LastStep]
			inner := collectSubproofInner(rebuiltLast, rebuiltLast.Depth())
			outbound := collectOutboundPremises(inner, rebuiltLast.Depth())
			rebuilt := &SubproofNode{LastStep: rebuiltLast, Args: n.Args, OutboundPremises: outbound}
			mutated, err := m.rewrite(m.pool, rebuilt)
			if err != nil {
				return err
			}
			m.cache[cur.node] = mutated

		default:
			return fmt.Errorf("alethe: unknown proof node type %T", cur.node)
		}
	}
	return nil
}
