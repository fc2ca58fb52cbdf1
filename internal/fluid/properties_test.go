package fluid_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/fluidsim/internal/fluid"
)

var _ = Describe("Solver", func() {
	var s *fluid.Solver

	BeforeEach(func() {
		var err error
		s, err = fluid.New(0.0001, 0.0001, 0.1, fluid.WithSize(24))
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("impulses", func() {
		It("rejects coordinates outside the grid", func() {
			Expect(s.AddDensity(24, 0, 1)).To(MatchError(fluid.ErrOutOfRange))
			Expect(s.AddVelocity(0, -1, 1, 1)).To(MatchError(fluid.ErrOutOfRange))
		})

		It("accepts ring cells", func() {
			Expect(s.AddDensity(0, 0, 1)).To(Succeed())
			Expect(s.AddDensity(23, 23, 1)).To(Succeed())
		})
	})

	Describe("stepping", func() {
		BeforeEach(func() {
			Expect(s.AddDensity(12, 12, 50)).To(Succeed())
			Expect(s.AddVelocity(12, 12, 3, -2)).To(Succeed())
		})

		It("keeps every value finite", func() {
			for k := 0; k < 50; k++ {
				s.Step()
			}
			u, v := s.Velocity()
			Expect(fluid.IsFinite(s.Density())).To(BeTrue())
			Expect(fluid.IsFinite(u)).To(BeTrue())
			Expect(fluid.IsFinite(v)).To(BeTrue())
		})

		It("never produces negative density", func() {
			for k := 0; k < 20; k++ {
				s.Step()
				Expect(s.Density()).To(HaveEach(BeNumerically(">=", 0)))
			}
		})

		It("keeps walls consistent with the interior", func() {
			s.Step()
			n := s.Size()
			d := s.Density()
			u, v := s.Velocity()
			for k := 1; k < n-1; k++ {
				Expect(d[s.Index(0, k)]).To(Equal(d[s.Index(1, k)]))
				Expect(u[s.Index(0, k)]).To(Equal(-u[s.Index(1, k)]))
				Expect(v[s.Index(k, n-1)]).To(Equal(-v[s.Index(k, n-2)]))
			}
		})

		It("moves density with the flow", func() {
			before := centroidX(s.Density(), s.Size())
			for k := 0; k < 10; k++ {
				s.Step()
			}
			Expect(centroidX(s.Density(), s.Size())).To(BeNumerically(">", before))
		})

		It("is deterministic", func() {
			other, err := fluid.New(0.0001, 0.0001, 0.1, fluid.WithSize(24))
			Expect(err).NotTo(HaveOccurred())
			Expect(other.AddDensity(12, 12, 50)).To(Succeed())
			Expect(other.AddVelocity(12, 12, 3, -2)).To(Succeed())

			for k := 0; k < 5; k++ {
				s.Step()
				other.Step()
			}
			Expect(other.Density()).To(Equal(s.Density()))
		})
	})

	Describe("Reset", func() {
		It("returns the solver to the empty state", func() {
			Expect(s.AddDensity(5, 5, 1)).To(Succeed())
			s.Step()
			s.Reset()
			Expect(fluid.InteriorSum(s.Density(), s.Size())).To(BeZero())
		})
	})
})

var _ = DescribeTable("construction bounds",
	func(diff, visc, dt float64, ok bool) {
		_, err := fluid.New(diff, visc, dt)
		if ok {
			Expect(err).NotTo(HaveOccurred())
		} else {
			Expect(err).To(MatchError(fluid.ErrParameterBounds))
		}
	},
	Entry("zero diffusion and viscosity", 0.0, 0.0, 0.1, true),
	Entry("reference parameters", 0.2, 1.0, 0.0000001, true),
	Entry("negative diffusion", -1.0, 0.0, 0.1, false),
	Entry("infinite dt", 0.0, 0.0, math.Inf(-1), false),
)

func centroidX(d fluid.Field, n int) float64 {
	var mass, moment float64
	for j := 1; j < n-1; j++ {
		for i := 1; i < n-1; i++ {
			mass += d[i+j*n]
			moment += float64(i) * d[i+j*n]
		}
	}
	return moment / mass
}
