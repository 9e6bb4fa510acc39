package analysis_test

import (
	"context"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/helixwave/internal/analysis"
	"github.com/san-kum/helixwave/internal/experiment"
	"github.com/san-kum/helixwave/internal/optim"
	"github.com/san-kum/helixwave/internal/physics"
)

var _ = Describe("The beta sweet spot", Ordered, func() {
	var res *analysis.SweepResult

	BeforeAll(func() {
		base := experiment.DefaultConfig()
		base.Grid.NX, base.Grid.NY = 64, 64
		base.Params.Steps = 200
		base.Params.Alpha, base.Params.C, base.Params.Gamma = 0.1, 1.0, 0
		ring := physics.DefaultRing()
		base.Initial = physics.Initial{Kind: physics.RingPattern, Ring: &ring}

		var err error
		res, err = analysis.Sweep(context.Background(), analysis.SweepConfig{
			Base:    base,
			Axes:    []optim.Axis{{Name: "beta", Values: []float64{0, 0.03, 1.0}}},
			Workers: 3,
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Entries).To(HaveLen(3))
	})

	It("keeps the entries in declared order", func() {
		Expect(res.Axes).To(Equal([]string{"beta"}))
		for i, beta := range []float64{0, 0.03, 1.0} {
			Expect(res.Entries[i].Point.Values).To(Equal([]float64{beta}))
		}
	})

	It("lets linear damping dominate at beta = 0", func() {
		Expect(res.Entries[0].Outcome).To(BeElementOf(analysis.Decayed, analysis.StablePattern))
		Expect(res.Entries[0].DivergedAt).To(Equal(-1))
	})

	It("holds a bounded pattern at beta = 0.03", func() {
		e := res.Entries[1]
		Expect(e.Outcome).To(Equal(analysis.StablePattern))
		Expect(e.StepsCompleted).To(Equal(200))
		Expect(e.TerminalMean).To(BeNumerically(">", analysis.DefaultThresholds().Decay))
		Expect(e.TerminalMean).To(BeNumerically("<", analysis.DefaultThresholds().Divergence))
	})

	It("blows up at beta = 1", func() {
		e := res.Entries[2]
		Expect(e.Outcome).To(Equal(analysis.Diverged))
		Expect(e.StepsCompleted).To(BeNumerically("<", 200))
	})

	It("places 0.03 inside the stable band", func() {
		lo, hi, ok := res.StableBand("beta")
		Expect(ok).To(BeTrue())
		Expect(lo).To(BeNumerically("<=", 0.03))
		Expect(hi).To(BeNumerically(">=", 0.03))
		Expect(hi).To(BeNumerically("<", 1))
	})
})

var _ = Describe("DominantFrequency", func() {
	It("recovers the frequency of a sampled sine", func() {
		dt := 0.05
		series := make([]float64, 256)
		for i := range series {
			series[i] = 3 + math.Sin(2*math.Pi*1.25*float64(i)*dt)
		}
		freq, mag := analysis.DominantFrequency(series, dt)
		Expect(freq).To(BeNumerically("~", 1.25, 1/(256*dt)))
		Expect(mag).To(BeNumerically(">", 0))
	})

	It("returns zero for degenerate input", func() {
		f, m := analysis.DominantFrequency([]float64{1}, 0.1)
		Expect(f).To(BeZero())
		Expect(m).To(BeZero())
	})
})

var _ = Describe("Lyapunov", func() {
	It("is finite and not strongly positive for the linear damped model", func() {
		cfg := experiment.DefaultConfig()
		cfg.Grid.NX, cfg.Grid.NY = 32, 32
		cfg.Params.Beta = 0
		cfg.Params.Steps = 80
		lambda, err := analysis.Lyapunov(context.Background(), cfg, 1e-6)
		Expect(err).NotTo(HaveOccurred())
		Expect(math.IsNaN(lambda) || math.IsInf(lambda, 0)).To(BeFalse())
		Expect(lambda).To(BeNumerically("<", 1))
	})

	It("rejects a non-positive perturbation", func() {
		_, err := analysis.Lyapunov(context.Background(), experiment.DefaultConfig(), 0)
		Expect(err).To(HaveOccurred())
	})
})
