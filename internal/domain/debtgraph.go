package domain

import "sort"

// DebtEdge is one directed debt: From owes To.
type DebtEdge struct {
	From   string
	To     string
	Amount Money
}

// DebtGraph is a dense directed weighted graph of debts between group
// members, weighted in minor units. Every ordered member pair holds an
// edge from the start; absence of debt is weight zero, not a missing
// edge, until the final pruning step. Member order is fixed at
// construction so simplification and Edges() are reproducible.
type DebtGraph struct {
	currency string
	members  []string
	edges    map[string]map[string]int64
}

// NewDebtGraph builds a zero-weight dense graph over the given members.
func NewDebtGraph(currency string, memberIDs []string) *DebtGraph {
	members := make([]string, len(memberIDs))
	copy(members, memberIDs)
	sort.Strings(members)

	edges := make(map[string]map[string]int64, len(members))
	for _, a := range members {
		edges[a] = make(map[string]int64, len(members)-1)
		for _, b := range members {
			if a != b {
				edges[a][b] = 0
			}
		}
	}

	return &DebtGraph{
		currency: currency,
		members:  members,
		edges:    edges,
	}
}

// Accumulate adds amount to the debtor -> creditor edge. Debts to oneself
// are ignored; both parties must be graph members.
func (g *DebtGraph) Accumulate(debtor, creditor string, amount Money) error {
	if amount.Currency != g.currency {
		return ErrCurrencyMismatch
	}

	if debtor == creditor {
		return nil
	}

	row, ok := g.edges[debtor]
	if !ok {
		return ErrNotAMember
	}

	if _, ok := g.edges[creditor]; !ok {
		return ErrNotAMember
	}

	row[creditor] += amount.Units

	return nil
}

// Simplify reduces the graph to a minimal set of positive edges. The
// steps run in a fixed order: triangle cancellation, rounding
// normalization, bilateral netting, pruning. Only 3-cycles are cancelled;
// longer cycles are left alone.
func (g *DebtGraph) Simplify() {
	g.cancelTriangles()
	g.normalize()
	g.netBilateral()
	g.prune()
}

// cancelTriangles makes a single pass over all ordered member triples
// (a,b,c) and, where a->b, b->c and c->a are all positive, subtracts the
// minimum of the three from each edge. A heuristic, not a global
// minimizer: later triples see the reductions of earlier ones.
func (g *DebtGraph) cancelTriangles() {
	for _, a := range g.members {
		for _, b := range g.members {
			if a == b {
				continue
			}

			for _, c := range g.members {
				if a == c || b == c {
					continue
				}

				ab := g.edges[a][b]
				bc := g.edges[b][c]
				ca := g.edges[c][a]

				if ab > 0 && bc > 0 && ca > 0 {
					m := min(ab, bc, ca)
					g.edges[a][b] -= m
					g.edges[b][c] -= m
					g.edges[c][a] -= m
				}
			}
		}
	}
}

// normalize zeroes edges below one minor unit. Weights are integer minor
// units throughout, so rounding to two decimals is exact by construction
// and only true zero-unit edges are affected.
func (g *DebtGraph) normalize() {
	for _, row := range g.edges {
		for to, units := range row {
			if units < 1 && units > -1 {
				row[to] = 0
			}
		}
	}
}

// netBilateral offsets mutual debts so at most one direction survives per
// pair.
func (g *DebtGraph) netBilateral() {
	for i, a := range g.members {
		for _, b := range g.members[i+1:] {
			ab := g.edges[a][b]
			ba := g.edges[b][a]

			if ab > 0 && ba > 0 {
				if ab >= ba {
					g.edges[a][b] = ab - ba
					g.edges[b][a] = 0
				} else {
					g.edges[b][a] = ba - ab
					g.edges[a][b] = 0
				}
			}
		}
	}
}

// prune removes all edges with non-positive weight.
func (g *DebtGraph) prune() {
	for _, row := range g.edges {
		for to, units := range row {
			if units <= 0 {
				delete(row, to)
			}
		}
	}
}

// Edges returns the positive edges in deterministic (from, to) order.
func (g *DebtGraph) Edges() []DebtEdge {
	var out []DebtEdge

	for _, from := range g.members {
		for _, to := range g.members {
			if from == to {
				continue
			}

			if units, ok := g.edges[from][to]; ok && units > 0 {
				out = append(out, DebtEdge{
					From:   from,
					To:     to,
					Amount: NewMoney(units, g.currency),
				})
			}
		}
	}

	return out
}

// NetUnits returns a member's net position in minor units: what they are
// owed minus what they owe. Simplification must never change it.
func (g *DebtGraph) NetUnits(userID string) int64 {
	var net int64

	for _, other := range g.members {
		if other == userID {
			continue
		}

		net += g.edges[other][userID]
		net -= g.edges[userID][other]
	}

	return net
}
