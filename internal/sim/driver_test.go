package sim

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/helixwave/internal/dynamo"
	"github.com/san-kum/helixwave/internal/forces"
	"github.com/san-kum/helixwave/internal/grid"
	"github.com/san-kum/helixwave/internal/integrators"
	"github.com/san-kum/helixwave/internal/physics"
)

var _ = Describe("Simulator", func() {
	var (
		g      *grid.Grid
		params dynamo.Parameters
	)

	BeforeEach(func() {
		var err error
		g, err = grid.New(grid.DefaultSpec())
		Expect(err).NotTo(HaveOccurred())
		params = dynamo.DefaultParameters()
		params.Steps = 60
	})

	run := func(src forces.Source, psi0 dynamo.Field) (*Result, error) {
		model := physics.NewHelix(g, params, src)
		s := New(g, model, integrators.NewLeapfrog(model, g, params))
		return s.Run(context.Background(), psi0, Config{Params: params, Stride: 5})
	}

	Context("driven by a point source from rest", func() {
		It("injects energy into an initially empty field", func() {
			src, err := forces.NewSource(g, forces.SourceSpec{Kind: forces.SourcePoint, Amplitude: 5, Frequency: 0.2})
			Expect(err).NotTo(HaveOccurred())

			result, err := run(src, g.NewField())
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Amplitude[0]).To(BeZero())
			Expect(result.Peak).To(BeNumerically(">", 0))
			Expect(result.Diverged).To(BeFalse())
		})
	})

	Context("with the taylor bootstrap", func() {
		It("differs from the zero-velocity start only when a velocity is given", func() {
			psi0, err := physics.DefaultInitial().Build(g)
			Expect(err).NotTo(HaveOccurred())

			base, err := run(nil, psi0)
			Expect(err).NotTo(HaveOccurred())

			params.Bootstrap = dynamo.BootstrapTaylor
			taylor, err := run(nil, psi0)
			Expect(err).NotTo(HaveOccurred())

			// Same ψ₀ with zero velocity: the taylor start adds ½dt²a, so the fields
			// stay close but are not identical.
			last, _ := base.Trajectory.Last()
			other, _ := taylor.Trajectory.Last()
			Expect(last.Field.Equal(other.Field)).To(BeFalse())
			Expect(base.TerminalMean(0.1)).To(BeNumerically("~", taylor.TerminalMean(0.1), 0.05))
		})
	})

	Context("when the parameters violate the Courant bound", func() {
		It("fails before stepping", func() {
			params.Dt = 0.5
			params.C = 2
			_, err := run(nil, g.NewField())
			Expect(err).To(MatchError(dynamo.ErrInvalidParameter))
		})
	})

	It("reports energy drift for the damped model", func() {
		psi0, err := physics.DefaultInitial().Build(g)
		Expect(err).NotTo(HaveOccurred())
		result, err := run(nil, psi0)
		Expect(err).NotTo(HaveOccurred())
		Expect(result.EnergyDrift).To(BeNumerically(">", 0))
	})
})
