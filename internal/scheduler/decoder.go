package scheduler

import (
	"fmt"
	"math"
	"sort"

	"github.com/taskalign/scheduler-core/internal/domain"
	"github.com/taskalign/scheduler-core/internal/validate"
)

// dayHour pins a component's production to an exact instant: the day it
// happened on, and the hour within that day.
type dayHour struct {
	day  int
	hour float64
}

// machineState is the decoder's per-machine cursor: which day the
// machine is currently on, how much of that day has been used, and
// what's mounted right now. Molds and colors stay mounted across day
// boundaries until something forces a change.
type machineState struct {
	machine        domain.Machine
	day            int
	usedHoursToday float64
	currentMoldID  string
	currentColor   string
	nextSeq        int
}

// decodeOutput is the concrete, per-genome result of running the
// decoder: a timeline, what demand went unmet, and the raw counters
// fitness.go turns into a score.
type decodeOutput struct {
	assignments     []domain.Assignment
	unmet           map[string]int
	usedHoursTotal  float64
	changeoverCount int
	waitHoursTotal  float64
	finish          map[string]dayHour
}

// decoder holds the mutable state threaded through one genome's
// construction (spec.md §4.3): machine cursors, remaining/produced
// quantities, and the global mold-exclusivity ledger.
type decoder struct {
	norm *validate.Normalized
	ci   *componentIndex

	machines map[string]*machineState
	remaining      map[string]int
	producedToDate map[string]int
	finish         map[string]dayHour
	moldBusy       moldBusyStore

	out decodeOutput
}

// decodeErr lets a mid-construction assertion failure unwind to
// Decode's recover without threading an error return through every
// helper — mirrors the panic/recover shape the transport layer's
// recoverer middleware uses for handler panics.
type decodeErr struct{ err error }

func newDecoder(norm *validate.Normalized, ci *componentIndex) *decoder {
	machines := make(map[string]*machineState, len(norm.Machines))
	for _, m := range norm.Machines {
		machines[m.ID] = &machineState{machine: m, day: 1, nextSeq: 1}
	}
	remaining := make(map[string]int, len(norm.Components))
	for _, c := range norm.Components {
		remaining[c.ID] = c.Quantity
	}
	return &decoder{
		norm:           norm,
		ci:             ci,
		machines:       machines,
		remaining:      remaining,
		producedToDate: make(map[string]int, len(norm.Components)),
		finish:         make(map[string]dayHour),
		moldBusy:       newMoldBusyStore(),
	}
}

// Decode walks genome in order, placing one component's entire demand
// at a time (spec.md §4.3). Every prerequisite of a component has
// already been placed by the time the component is reached, because
// repair (spec.md §4.5) guarantees genome is topologically valid.
func Decode(norm *validate.Normalized, ci *componentIndex, genome Genome) (out decodeOutput, err error) {
	dec := newDecoder(norm, ci)

	defer func() {
		if r := recover(); r != nil {
			if de, ok := r.(decodeErr); ok {
				err = de.err
				return
			}
			panic(r)
		}
	}()

	for _, idx := range genome {
		id := dec.ci.idOf[idx]
		c := dec.norm.ComponentByID[id]
		dec.placeComponent(c)
	}

	unmet := make(map[string]int)
	for id, r := range dec.remaining {
		if r > 0 {
			unmet[id] = r
		}
	}

	return decodeOutput{
		assignments:     dec.out.assignments,
		unmet:           unmet,
		usedHoursTotal:  dec.out.usedHoursTotal,
		changeoverCount: dec.out.changeoverCount,
		waitHoursTotal:  dec.out.waitHoursTotal,
		finish:          dec.finish,
	}, nil
}

// abort raises an INTERNAL_ERROR out of a mid-decode assertion. Reached
// when a component's mold admits no machine (CheckFeasibility rejects
// such a request before decoding), or when assertCommit finds an
// invalid commit.
func (dec *decoder) abort(format string, args ...any) {
	panic(decodeErr{fmt.Errorf("%w: decoder: "+format, append([]any{domain.ErrInternal}, args...)...)})
}

// prerequisiteGate computes the earliest (day, hour) at which x may
// begin producing, per spec.md §4.3 Step A. Because genome is
// topologically valid, every prerequisite of x has already run to
// completion by the time x is reached: either it fully met its
// quantity (in which case its finish instant is known), or it ran out
// of month and left a residual — in which case x can never legally
// start and its entire demand becomes unmet.
func (dec *decoder) prerequisiteGate(c domain.Component) (day int, hour float64, infeasible bool) {
	if len(c.Prerequisites) == 0 {
		return 1, 0, false
	}
	gateDay, gateHour := 1, 0.0
	for _, p := range c.Prerequisites {
		if dec.remaining[p] > 0 {
			return 0, 0, true
		}
		fh := dec.finish[p]
		if fh.day > gateDay || (fh.day == gateDay && fh.hour > gateHour) {
			gateDay, gateHour = fh.day, fh.hour
		}
	}
	return gateDay, gateHour, false
}

// candidateCost is a machine's projected placement, used to rank the
// admitting machines for a component per spec.md §4.3 Step B.
type candidateCost struct {
	machine    domain.Machine
	day        int
	start      float64
	needsMold  bool
	needsColor bool
	remaining  float64 // capacity - start, for the "pack tight" tiebreak
}

func less(a, b candidateCost) bool {
	if a.day != b.day {
		return a.day < b.day
	}
	if a.start != b.start {
		return a.start < b.start
	}
	if a.needsMold != b.needsMold {
		return !a.needsMold
	}
	if a.needsColor != b.needsColor {
		return !a.needsColor
	}
	if a.remaining != b.remaining {
		return a.remaining < b.remaining
	}
	return a.machine.ID < b.machine.ID
}

// placeComponent runs the full per-component placement loop: pick the
// best admitting machine, then produce on it day by day until quantity
// is exhausted or the month runs out.
func (dec *decoder) placeComponent(c domain.Component) {
	if dec.remaining[c.ID] == 0 {
		return
	}

	gateDay, gateHour, infeasible := dec.prerequisiteGate(c)
	if infeasible {
		return // stays fully unmet; caught by the caller's unmet sweep
	}

	admitting := dec.norm.AdmittingMachines[c.MoldID]
	if len(admitting) == 0 {
		dec.abort("component %q's mold %q admits no machine", c.ID, c.MoldID)
	}

	for dec.remaining[c.ID] > 0 {
		best, ok := dec.pickMachine(admitting, c, gateDay, gateHour)
		if !ok {
			return // month exhausted on every admitting machine
		}
		dec.runOnMachine(dec.machines[best.machine.ID], c, gateDay, gateHour)
	}
}

// pickMachine projects, without mutating any state, the earliest
// (day, start_hour) each admitting machine could begin producing c at,
// and returns the lexicographically best one per spec.md §4.3 Step B.
func (dec *decoder) pickMachine(admitting []domain.Machine, c domain.Component, gateDay int, gateHour float64) (candidateCost, bool) {
	var best candidateCost
	found := false
	for _, m := range admitting {
		cost, ok := dec.earliestStart(dec.machines[m.ID], c, gateDay, gateHour)
		if !ok {
			continue
		}
		if !found || less(cost, best) {
			best, found = cost, true
		}
	}
	return best, found
}

// earliestStart is the read-only projection used by pickMachine: it
// never appends assignments or mutates moldBusy, it only asks "if we
// started here, when could the first piece run".
func (dec *decoder) earliestStart(m *machineState, c domain.Component, gateDay int, gateHour float64) (candidateCost, bool) {
	capacity := m.machine.Capacity()
	h := c.CycleHours()

	day := m.day
	if gateDay > day {
		day = gateDay
	}

	for day <= dec.norm.MonthDays {
		cursor := 0.0
		if day == m.day {
			cursor = m.usedHoursToday
		}

		colorNeeded := m.currentColor != c.Color
		moldNeeded := m.currentMoldID != c.MoldID

		t := cursor
		if colorNeeded {
			t += dec.norm.ColorChangeTimeHours
		}
		if t > capacity+epsilon {
			day++
			continue
		}

		if moldNeeded {
			freeStart, ok := dec.moldBusy.firstFreeStart(c.MoldID, day, t, dec.norm.MoldChangeTimeHours, capacity)
			if !ok {
				day++
				continue
			}
			t = freeStart + dec.norm.MoldChangeTimeHours
		}

		if day == gateDay && gateHour > t+epsilon {
			t = gateHour
		}

		if t > capacity+epsilon {
			day++
			continue
		}
		if capacity-t+epsilon < h {
			day++
			continue
		}

		return candidateCost{
			machine:    m.machine,
			day:        day,
			start:      t,
			needsMold:  moldNeeded,
			needsColor: colorNeeded,
			remaining:  capacity - t,
		}, true
	}
	return candidateCost{}, false
}

// runOnMachine commits one day's worth of work for c on m: any needed
// changeovers (sliding for mold exclusivity, waiting on a prerequisite
// finishing later the same day), then as much PRODUCE as fits. Spec.md
// §4.3 Steps C-E.
func (dec *decoder) runOnMachine(m *machineState, c domain.Component, gateDay int, gateHour float64) {
	day := m.day
	if gateDay > day {
		day = gateDay
	}
	if day != m.day {
		m.day = day
		m.usedHoursToday = 0
		m.nextSeq = 1
	}
	if day > dec.norm.MonthDays {
		return
	}

	capacity := m.machine.Capacity()
	cursor := m.usedHoursToday

	colorNeeded := m.currentColor != c.Color
	if colorNeeded {
		end := cursor + dec.norm.ColorChangeTimeHours
		if end > capacity+epsilon {
			dec.advanceDay(m)
			return
		}
		dec.emit(m, domain.Assignment{
			TaskType:  domain.TaskChangeColor,
			StartHour: cursor, EndHour: end,
			FromColor: orNone(m.currentColor), ToColor: c.Color,
		})
		dec.out.changeoverCount++
		m.currentColor = c.Color
		cursor = end
	}

	moldNeeded := m.currentMoldID != c.MoldID
	if moldNeeded {
		freeStart, ok := dec.moldBusy.firstFreeStart(c.MoldID, day, cursor, dec.norm.MoldChangeTimeHours, capacity)
		if !ok {
			dec.advanceDay(m)
			return
		}
		if freeStart > cursor+epsilon {
			dec.emitWait(m, cursor, freeStart)
			cursor = freeStart
		}
		end := cursor + dec.norm.MoldChangeTimeHours
		dec.emit(m, domain.Assignment{
			TaskType:  domain.TaskChangeMold,
			StartHour: cursor, EndHour: end,
			FromMoldID: orNone(m.currentMoldID), ToMoldID: c.MoldID,
		})
		dec.out.changeoverCount++
		dec.moldBusy.add(c.MoldID, day, interval{cursor, end})
		m.currentMoldID = c.MoldID
		cursor = end
	}

	if day == gateDay && gateHour > cursor+epsilon {
		if gateHour > capacity+epsilon {
			dec.advanceDay(m)
			return
		}
		dec.emitWait(m, cursor, gateHour)
		cursor = gateHour
	}

	h := c.CycleHours()
	remainCap := capacity - cursor
	if remainCap+epsilon < h {
		dec.advanceDay(m)
		return
	}

	maxPieces := int(math.Floor((remainCap + epsilon) / h))
	q := dec.remaining[c.ID]
	if maxPieces < q {
		q = maxPieces
	}
	if q <= 0 {
		dec.advanceDay(m)
		return
	}

	end := cursor + float64(q)*h
	dec.emit(m, domain.Assignment{
		TaskType:  domain.TaskProduce,
		StartHour: cursor, EndHour: end,
		ComponentID: c.ID, ComponentName: c.Name, ProducedQty: q,
		MoldID: c.MoldID, Color: c.Color,
	})
	dec.moldBusy.add(c.MoldID, day, interval{cursor, end})
	dec.remaining[c.ID] -= q
	dec.producedToDate[c.ID] += q
	dec.out.usedHoursTotal += end - cursor

	if dec.remaining[c.ID] == 0 {
		dec.finish[c.ID] = dayHour{day: day, hour: end}
		return
	}
	dec.advanceDay(m)
}

func (dec *decoder) advanceDay(m *machineState) {
	m.day++
	m.usedHoursToday = 0
	m.nextSeq = 1
}

// assertCommit guards every assignment about to be appended to the
// timeline: no negative-duration task, nothing overlapping the same
// machine's prior commit today, nothing spilling past capacity. A
// violation means a bug upstream in placeComponent/runOnMachine, not a
// reachable input condition, so it aborts rather than returning an
// error the caller could plausibly recover from.
func (dec *decoder) assertCommit(m *machineState, a domain.Assignment) {
	capacity := m.machine.Capacity()
	if a.EndHour < a.StartHour-epsilon {
		dec.abort("machine %q day %d: task ends at %.4f before it starts at %.4f", m.machine.ID, m.day, a.EndHour, a.StartHour)
	}
	if a.StartHour < m.usedHoursToday-epsilon {
		dec.abort("machine %q day %d: task starts at %.4f, overlapping prior commit ending %.4f", m.machine.ID, m.day, a.StartHour, m.usedHoursToday)
	}
	if a.EndHour > capacity+epsilon {
		dec.abort("machine %q day %d: task ends at %.4f, past capacity %.4f", m.machine.ID, m.day, a.EndHour, capacity)
	}
}

func (dec *decoder) emit(m *machineState, a domain.Assignment) {
	dec.assertCommit(m, a)
	a.Day = m.day
	a.MachineID = m.machine.ID
	a.MachineName = m.machine.Name
	a.SequenceInDay = m.nextSeq
	a.UsedHours = a.EndHour - a.StartHour
	a.Utilization = a.UsedHours / m.machine.Capacity()
	dec.out.assignments = append(dec.out.assignments, a)
	m.nextSeq++
	m.usedHoursToday = a.EndHour
}

func (dec *decoder) emitWait(m *machineState, start, end float64) {
	dec.emit(m, domain.Assignment{TaskType: domain.TaskWait, StartHour: start, EndHour: end})
	dec.out.waitHoursTotal += end - start
}

func orNone(s string) string {
	if s == "" {
		return domain.NoneSentinel
	}
	return s
}

// sortAssignments orders a timeline for stable, human-readable output:
// by machine, then day, then sequence — the natural reading order of a
// shop-floor schedule.
func sortAssignments(as []domain.Assignment) {
	sort.SliceStable(as, func(i, j int) bool {
		if as[i].MachineID != as[j].MachineID {
			return as[i].MachineID < as[j].MachineID
		}
		if as[i].Day != as[j].Day {
			return as[i].Day < as[j].Day
		}
		return as[i].SequenceInDay < as[j].SequenceInDay
	})
}
