package hitgen

import (
	"fmt"
	"iter"
	"log"
	"math"
	"slices"
	"sync"
)

// Defaults modelled on a detector of 115 strings with 18 optical modules each and
// 31 sensors per module at about 7 kHz single rate per sensor.
const (
	DefaultNDom     = 115
	DefaultNMod     = 18
	DefaultCapacity = 1 << 23
	// DefaultTauL0 is the mean time between two background hits of one module in ns.
	DefaultTauL0    = 4608.0
	DefaultToTMean  = 26.5
	DefaultToTSigma = 10.5
)

// DefaultRates returns the default burst rate table in Hz: two-fold up to five-fold.
func DefaultRates() []float64 {
	return []float64{600, 60, 7, 0.8}
}

// maxExpDraw is -ln of the smallest uniform a Source produces (2^-24).
const maxExpDraw = 24 * math.Ln2

// Layout is the fixed structure of the detector and the output buffers.
type Layout struct {
	NDom     int
	NMod     int
	Capacity int
}

// Modules returns NDom*NMod.
func (l Layout) Modules() int { return l.NDom * l.NMod }

// Params are the distribution parameters of the synthesized hits.
type Params struct {
	// TauL0 is the mean exponential inter-arrival time in ns.
	TauL0 float64
	// ToTMean and ToTSigma parametrize the Gaussian pulse width in ns.
	ToTMean  float64
	ToTSigma float64
}

// StreamMode selects how random streams are assigned to modules.
type StreamMode int

const (
	// StreamShared consumes one stream module after module.
	StreamShared StreamMode = iota
	// StreamPerModule gives every module its own derived stream. Output does not
	// depend on the number of workers.
	StreamPerModule
)

func (m StreamMode) String() string {
	if m == StreamPerModule {
		return "per-module"
	}
	return "shared"
}

// Option configures a Generator.
type Option func(*Generator)

// WithBackend selects the vector math backend.
func WithBackend(b Backend) Option {
	return func(g *Generator) { g.backend = b }
}

// WithInjector replaces the default BurstInjector.
func WithInjector(inj Injector) Option {
	return func(g *Generator) { g.injector = inj }
}

// WithWorkers processes modules on n goroutines. n > 1 implies StreamPerModule.
func WithWorkers(n int) Option {
	return func(g *Generator) { g.workers = max(n, 1) }
}

// WithStreams selects the stream mode.
func WithStreams(m StreamMode) Option {
	return func(g *Generator) { g.streams = m }
}

// WithLogger enables progress and truncation messages.
func WithLogger(l *log.Logger) Option {
	return func(g *Generator) { g.logger = l }
}

// Generator synthesizes hit streams for every module of a Layout. A Generator holds no
// per-call state and may be used by several goroutines, each with its own Generators.
type Generator struct {
	layout   Layout
	params   Params
	backend  Backend
	injector Injector
	workers  int
	streams  StreamMode
	logger   *log.Logger
}

// New validates layout and params and returns a Generator. Configuration violations
// are reported here, before any buffer is allocated.
func New(layout Layout, params Params, opts ...Option) (*Generator, error) {
	if layout.NDom <= 0 || layout.NMod <= 0 || layout.NMod > 99 ||
		layout.NDom > ModuleMask/100 || 100*layout.NDom+layout.NMod > ModuleMask {
		return nil, fmt.Errorf("%d doms x %d mods: %w", layout.NDom, layout.NMod, ErrModules)
	}
	if layout.Capacity <= 0 || layout.Capacity%chunk != 0 {
		return nil, fmt.Errorf("capacity %d: %w", layout.Capacity, ErrCapacity)
	}
	if layout.Capacity/layout.Modules() < chunk {
		return nil, fmt.Errorf("capacity %d for %d modules: %w", layout.Capacity, layout.Modules(), ErrCapacityTooSmall)
	}
	if !(params.TauL0 > 0) || (params.TauL0*maxExpDraw+1)*BatchWidth >= math.MaxInt32 {
		return nil, fmt.Errorf("tau_l0 %v: %w", params.TauL0, ErrParams)
	}
	if math.IsNaN(params.ToTMean) || math.IsInf(params.ToTMean, 0) ||
		!(params.ToTSigma >= 0) || math.IsInf(params.ToTSigma, 0) {
		return nil, fmt.Errorf("tot mean %v sigma %v: %w", params.ToTMean, params.ToTSigma, ErrParams)
	}

	g := &Generator{
		layout:   layout,
		params:   params,
		injector: BurstInjector{Jitter: DefaultJitter},
		workers:  1,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.backend == nil {
		g.backend, _ = BackendByName(BackendAuto)
	}
	if g.injector == nil {
		g.injector = NoInjector{}
	}
	if g.workers > 1 {
		g.streams = StreamPerModule
	}
	return g, nil
}

// Layout returns the layout the generator was built with.
func (g *Generator) Layout() Layout { return g.layout }

// Params returns the distribution parameters.
func (g *Generator) Params() Params { return g.params }

// Backend returns the active vector math backend.
func (g *Generator) Backend() Backend { return g.backend }

// ModuleReport describes the hits of one module.
type ModuleReport struct {
	Dom  int
	Mod  int
	Code uint32
	// Start is the index of the module's first hit in Result.Times.
	Start int
	// Poisson is the number of background hits, Coincident the number of injected ones.
	Poisson    int
	Coincident int
	// Reserved is the capacity planned for the module.
	Reserved int
	// Truncated reports that the module ran out of reserved capacity, either before
	// its clock reached the window end or while the injector was adding bursts, so it
	// holds fewer hits than requested.
	Truncated bool
}

// Hits returns Poisson + Coincident.
func (m ModuleReport) Hits() int { return m.Poisson + m.Coincident }

// Result holds the output of one generation call. Times and Values have equal length
// and are owned by the caller. Within a module Times is non-decreasing; across modules
// there is no ordering.
type Result struct {
	Times     []int64
	Values    []uint32
	Modules   []ModuleReport
	Window    Window
	Backend   string
	Streams   StreamMode
	Seeds     [2]uint64
	ElapsedNs int64
}

// Len returns the number of hits.
func (r *Result) Len() int { return len(r.Times) }

// Truncated returns the number of modules that stopped early for lack of capacity.
func (r *Result) Truncated() int {
	n := 0
	for _, m := range r.Modules {
		if m.Truncated {
			n++
		}
	}
	return n
}

// Module returns the times and values of module i.
func (r *Result) Module(i int) ([]int64, []uint32) {
	m := r.Modules[i]
	end := m.Start + m.Hits()
	return r.Times[m.Start:end], r.Values[m.Start:end]
}

// All yields every hit with its unpacked record.
func (r *Result) All() iter.Seq2[int64, Record] {
	return func(yield func(int64, Record) bool) {
		for i, t := range r.Times {
			if !yield(t, Unpack(r.Values[i])) {
				return
			}
		}
	}
}

// scratch holds the batch registers of one module worker.
type scratch struct {
	u      [BatchWidth]float32
	u1, u2 [BatchWidth]float32
	z0, z1 [BatchWidth]float32
	sensor [2][BatchWidth]int32
}

// Generate synthesizes the hits of every module in the window [timeStart, timeEnd).
//
// Each module receives a view of the output buffers sized by PlanCapacity. Inside it,
// batches of exponential inter-arrival times are drawn, prefix-summed with Scan and
// offset by the last time of the previous batch until the module clock passes
// timeEnd or fewer than two batches of room remain. Hits at or after timeEnd are
// dropped, the injector adds coincidences, and every hit gets a packed value.
// Finally the module segments are moved together and both buffers are truncated.
//
// The errors are a nil state, a window whose arithmetic would overflow int64 and an
// injector that breaks its cursor contract.
func (g *Generator) Generate(timeStart, timeEnd int64, gens *Generators) (*Result, error) {
	if gens == nil {
		return nil, fmt.Errorf("nil generator state: %w", ErrParams)
	}
	if err := g.checkWindow(timeStart, timeEnd); err != nil {
		return nil, err
	}
	begin := SampleTime()
	w := Window{Start: timeStart, End: timeEnd}
	modules := g.layout.Modules()
	plan := PlanCapacity(modules, g.layout.Capacity, ExpectedHits(w, g.params.TauL0, gens))

	times := make([]int64, plan.Total)
	values := make([]uint32, plan.Total)
	reports := make([]ModuleReport, modules)

	var err error
	if g.workers > 1 {
		err = g.generateParallel(times, values, reports, plan, w, gens)
	} else {
		err = g.generateSequential(times, values, reports, plan, w, gens)
	}
	if err != nil {
		return nil, err
	}

	cursor := 0
	for i := range reports {
		n := reports[i].Hits()
		off := plan.Offsets[i]
		copy(times[cursor:], times[off:off+n])
		copy(values[cursor:], values[off:off+n])
		reports[i].Start = cursor
		cursor += n
	}

	res := &Result{
		Times:     slices.Clip(times[:cursor]),
		Values:    slices.Clip(values[:cursor]),
		Modules:   reports,
		Window:    w,
		Backend:   g.backend.Name(),
		Streams:   g.streams,
		Seeds:     gens.Seeds(),
		ElapsedNs: DiffTimeStamps(begin, SampleTime()),
	}
	if g.logger != nil {
		g.logger.Printf("generated %d hits for %d modules in [%d, %d) ns (%s, %s streams, %d workers)",
			res.Len(), modules, w.Start, w.End, res.Backend, res.Streams, g.workers)
		if n := res.Truncated(); n > 0 {
			g.logger.Printf("⚠️ %d of %d modules ran out of capacity (%d hits reserved per module)",
				n, modules, plan.Reserved[0])
		}
	}
	return res, nil
}

// checkWindow rejects non-empty windows whose length does not fit in int64, or whose
// end leaves no room for the last batch, which may pass the end by up to
// BatchWidth maximal inter-arrival draws.
func (g *Generator) checkWindow(start, end int64) error {
	if end <= start {
		return nil
	}
	if start < 0 && end > math.MaxInt64+start {
		return fmt.Errorf("window [%d, %d) is longer than %d ns: %w", start, end, int64(math.MaxInt64), ErrParams)
	}
	overshoot := int64(math.Ceil(BatchWidth * (g.params.TauL0*maxExpDraw + 1)))
	if end > math.MaxInt64-overshoot {
		return fmt.Errorf("window end %d within %d ns of the int64 limit: %w", end, overshoot, ErrParams)
	}
	return nil
}

func (g *Generator) generateSequential(times []int64, values []uint32, reports []ModuleReport, plan Plan, w Window, gens *Generators) error {
	var sc scratch
	var src Source = gens.Source()
	for i := range reports {
		if g.streams == StreamPerModule {
			src = gens.ModuleSource(i)
		}
		rep, err := g.fillModule(i, times, values, plan, w, gens, src, &sc)
		if err != nil {
			return err
		}
		reports[i] = rep
	}
	return nil
}

// generateParallel hands module indices to the workers. Every module writes only its
// planned view and draws from its own stream, so workers share nothing.
func (g *Generator) generateParallel(times []int64, values []uint32, reports []ModuleReport, plan Plan, w Window, gens *Generators) error {
	jobs := make(chan int)
	errs := make([]error, len(reports))
	var wg sync.WaitGroup
	for range min(g.workers, len(reports)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var sc scratch
			for i := range jobs {
				reports[i], errs[i] = g.fillModule(i, times, values, plan, w, gens, gens.ModuleSource(i), &sc)
			}
		}()
	}
	for i := range reports {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// fillModule generates module i into its planned view.
func (g *Generator) fillModule(i int, times []int64, values []uint32, plan Plan, w Window, gens *Generators, src Source, sc *scratch) (ModuleReport, error) {
	dom, mod := i/g.layout.NMod, i%g.layout.NMod
	off, size := plan.Offsets[i], plan.Reserved[i]
	seg := times[off : off+size : off+size]
	vals := values[off : off+size : off+size]

	rep := ModuleReport{Dom: dom, Mod: mod, Code: ModuleCode(dom, mod), Reserved: size}

	n := g.arrivals(seg, w, src, sc)
	rep.Truncated = w.End > w.Start && (n == 0 || seg[n-1] < w.End)
	for n > 0 && seg[n-1] >= w.End {
		n--
	}
	rep.Poisson = n

	k := g.injector.Inject(seg, n, w, gens, src)
	if k < n || k > len(seg) {
		return rep, fmt.Errorf("module %d: cursor %d outside [%d, %d]: %w", rep.Code, k, n, len(seg), ErrInjectorCursor)
	}
	rep.Coincident = k - n
	// arrivals always leave at least one batch free, so a full view means the
	// injector ran out of room
	if k == len(seg) {
		rep.Truncated = true
	}
	if k > n {
		slices.Sort(seg[:k])
	}

	g.pulses(vals, k, rep.Code, src, sc)
	return rep, nil
}

// arrivals fills seg with monotonic Poisson arrival times starting at w.Start and
// returns the count, always a multiple of BatchWidth. It stops once the last time
// reaches w.End or fewer than two batches of room are left.
func (g *Generator) arrivals(seg []int64, w Window, src Source, sc *scratch) int {
	n := 0
	last := w.Start
	offset := w.Start
	u := sc.u[:]
	for last < w.End && len(seg)-n >= chunk {
		src.Uniforms(u)
		g.backend.Log(u)
		g.backend.Affine(u, float32(-g.params.TauL0), 0.5)

		var lanes Lanes
		for j, v := range u {
			lanes[j] = int32(v)
		}
		lanes = Scan(lanes)

		out := seg[n : n+BatchWidth]
		for j, v := range lanes {
			out[j] = offset + int64(v)
		}
		last = out[BatchWidth-1]
		offset = last
		n += BatchWidth
	}
	return n
}

// pulses packs a value for each of the first k slots of vals. One Box-Muller draw
// yields two normal batches: z0 fills a batch, z1 the next one.
func (g *Generator) pulses(vals []uint32, k int, code uint32, src Source, sc *scratch) {
	b := g.backend
	sigma, mean := float32(g.params.ToTSigma), float32(g.params.ToTMean)
	for v := 0; v < k; v += chunk {
		src.Bounded(sc.sensor[0][:], 0, MaxSensor)
		src.Bounded(sc.sensor[1][:], 0, MaxSensor)
		src.Uniforms(sc.u1[:])
		src.Uniforms(sc.u2[:])

		// r = sqrt(-2 ln u1)
		b.Log(sc.u1[:])
		b.Affine(sc.u1[:], -2, 0)
		b.Sqrt(sc.u1[:])
		b.Affine(sc.u2[:], 2*math.Pi, 0)
		b.SinCos(sc.u2[:], sc.z0[:], sc.z1[:])
		b.Mul(sc.z0[:], sc.u1[:])
		b.Mul(sc.z1[:], sc.u1[:])

		b.Affine(sc.z0[:], sigma, mean)
		b.Affine(sc.z1[:], sigma, mean)
		b.Round(sc.z0[:])
		b.Round(sc.z1[:])

		out := vals[v : v+chunk]
		for j := range BatchWidth {
			out[j] = Pack(clampPulse(sc.z0[j]), uint8(sc.sensor[0][j]), code)
			out[BatchWidth+j] = Pack(clampPulse(sc.z1[j]), uint8(sc.sensor[1][j]), code)
		}
	}
}

// clampPulse maps x to [0, MaxPulse]; NaN maps to 0.
func clampPulse(x float32) uint8 {
	if !(x > 0) {
		return 0
	}
	if x >= MaxPulse {
		return MaxPulse
	}
	return uint8(x)
}
