package scheduler

import (
	"context"
	"math/rand"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/taskalign/scheduler-core/internal/validate"
)

// ga is the driver state for one Schedule call: the normalized
// request, the component index it operates over, its own PRNG seeded
// from the request (spec.md §5's determinism guarantee), and the
// tuning knobs.
type ga struct {
	norm   *validate.Normalized
	ci     *componentIndex
	rng    *rand.Rand
	params Parameters
}

func newGA(norm *validate.Normalized, ci *componentIndex, params Parameters) *ga {
	return &ga{
		norm:   norm,
		ci:     ci,
		rng:    rand.New(rand.NewSource(norm.Seed)),
		params: params,
	}
}

// seedPopulation builds pop_size genomes: the first half from the
// topological-level-biased shuffle, the second half from uniform
// random permutations repaired into topological validity, per spec.md
// §4.5.
func (g *ga) seedPopulation() []Genome {
	n := len(g.ci.idOf)
	pop := make([]Genome, g.params.PopSize)
	biasedCount := (g.params.PopSize + 1) / 2

	for i := 0; i < biasedCount; i++ {
		pop[i] = g.levelBiasedShuffle()
	}
	for i := biasedCount; i < g.params.PopSize; i++ {
		perm := make(Genome, n)
		for j := range perm {
			perm[j] = j
		}
		g.rng.Shuffle(n, func(a, b int) { perm[a], perm[b] = perm[b], perm[a] })
		g.repair(perm)
		pop[i] = perm
	}
	return pop
}

// levelBiasedShuffle groups component indices by topological level and
// shuffles within each level, concatenating levels in ascending order
// so no component ever precedes one of its own prerequisites.
func (g *ga) levelBiasedShuffle() Genome {
	maxLevel := g.ci.maxLevel()
	byLevel := make([][]int, maxLevel+1)
	for idx, lvl := range g.ci.levelOf {
		byLevel[lvl] = append(byLevel[lvl], idx)
	}
	genome := make(Genome, 0, len(g.ci.idOf))
	for _, level := range byLevel {
		g.rng.Shuffle(len(level), func(a, b int) { level[a], level[b] = level[b], level[a] })
		genome = append(genome, level...)
	}
	return genome
}

// repair walks left-to-right; whenever a component appears before one
// of its prerequisites, it swaps positions with the later occurrence of
// that missing prerequisite, then re-checks the component now at that
// position, until every prerequisite of it sits earlier. Spec.md §4.5.
func (g *ga) repair(genome Genome) {
	posOf := make(map[int]int, len(genome))
	for i, idx := range genome {
		posOf[idx] = i
	}
	for i := 0; i < len(genome); i++ {
		for swapped := true; swapped; {
			swapped = false
			c := g.ci.norm.ComponentByID[g.ci.idOf[genome[i]]]
			for _, pID := range c.Prerequisites {
				pIdx := g.ci.indexOfID[pID]
				pPos := posOf[pIdx]
				if pPos > i {
					genome[i], genome[pPos] = genome[pPos], genome[i]
					posOf[genome[i]] = i
					posOf[genome[pPos]] = pPos
					swapped = true
					break
				}
			}
		}
	}
}

// tournamentSelect runs a tournament of params.TournamentK random draws
// with replacement over pop (a binary tournament at the default K of 2),
// whose scores are given in parallel index order.
func (g *ga) tournamentSelect(pop []Genome, scores []float64) Genome {
	best := g.rng.Intn(len(pop))
	for k := 1; k < g.params.TournamentK; k++ {
		challenger := g.rng.Intn(len(pop))
		if scores[challenger] < scores[best] {
			best = challenger
		}
	}
	return pop[best]
}

// orderCrossover implements OX: copy parent A's slice between two cut
// points verbatim, then fill the remaining positions in parent B's
// order, skipping ids already placed.
func (g *ga) orderCrossover(a, b Genome) Genome {
	n := len(a)
	c1 := g.rng.Intn(n)
	c2 := g.rng.Intn(n)
	if c1 > c2 {
		c1, c2 = c2, c1
	}

	child := make(Genome, n)
	taken := make([]bool, n)
	for i := c1; i <= c2; i++ {
		child[i] = a[i]
		taken[a[i]] = true
	}

	pos := (c2 + 1) % n
	for _, v := range b {
		if taken[v] {
			continue
		}
		child[pos] = v
		taken[v] = true
		pos = (pos + 1) % n
	}
	return child
}

// mutate performs one swap of two random positions with probability
// mutation_rate.
func (g *ga) mutate(genome Genome) {
	if g.rng.Float64() >= g.params.MutationRate {
		return
	}
	n := len(genome)
	i, j := g.rng.Intn(n), g.rng.Intn(n)
	genome[i], genome[j] = genome[j], genome[i]
}

// evaluateGeneration scores every genome in pop concurrently, writing
// into a pre-sized slice indexed by population position so the result
// is independent of goroutine completion order — spec.md §5's
// determinism-under-parallelism requirement.
func (g *ga) evaluateGeneration(ctx context.Context, pop []Genome) ([]decodeOutput, []float64, error) {
	outs := make([]decodeOutput, len(pop))
	scores := make([]float64, len(pop))

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(runtime.GOMAXPROCS(0))
	for i, genome := range pop {
		i, genome := i, genome
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			out, err := Decode(g.norm, g.ci, genome)
			if err != nil {
				return err
			}
			outs[i] = out
			scores[i] = score(g.norm, out)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, nil, err
	}
	return outs, scores, nil
}

// run executes the full generational loop described in spec.md §4.5,
// returning the best individual and outcome found, and whether the run
// was cut short by ctx cancellation (a time budget expiring).
func (g *ga) run(ctx context.Context) (Genome, decodeOutput, float64, bool, error) {
	pop := g.seedPopulation()

	outs, scores, err := g.evaluateGeneration(ctx, pop)
	if err != nil {
		return nil, decodeOutput{}, 0, false, err
	}
	bestIdx := bestIndex(scores)
	bestGenome := pop[bestIdx].clone()
	bestOut := outs[bestIdx]
	bestScore := scores[bestIdx]

	partial := false
	for gen := 1; gen < g.params.NGenerations; gen++ {
		select {
		case <-ctx.Done():
			partial = true
		default:
		}
		if partial {
			break
		}

		next := make([]Genome, 0, len(pop))
		if g.params.EliteCount > 0 {
			elite := pop[bestIdx].clone()
			next = append(next, elite)
		}
		for len(next) < len(pop) {
			pa := g.tournamentSelect(pop, scores)
			pb := g.tournamentSelect(pop, scores)
			child := g.orderCrossover(pa, pb)
			g.mutate(child)
			g.repair(child)
			next = append(next, child)
		}

		outs, scores, err = g.evaluateGeneration(ctx, next)
		if err != nil {
			if ctx.Err() != nil {
				partial = true
				break
			}
			return nil, decodeOutput{}, 0, false, err
		}
		pop = next
		bestIdx = bestIndex(scores)
		if scores[bestIdx] < bestScore {
			bestGenome = pop[bestIdx].clone()
			bestOut = outs[bestIdx]
			bestScore = scores[bestIdx]
		}
	}

	return bestGenome, bestOut, bestScore, partial, nil
}

// bestIndex returns the lowest-score index, ties broken by lower index
// (stable), per spec.md §4.5.
func bestIndex(scores []float64) int {
	best := 0
	for i := 1; i < len(scores); i++ {
		if scores[i] < scores[best] {
			best = i
		}
	}
	return best
}
