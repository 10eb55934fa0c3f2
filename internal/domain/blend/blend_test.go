package blend_test

import (
	"testing"

	"namearena/internal/domain/blend"
	. "github.com/smartystreets/goconvey/convey"
)

func TestBlend(t *testing.T) {
	Convey("Given a default blender", t, func() {
		b := blend.NewBlender()

		Convey("When no matches have been played", func() {
			Convey("Then the existing rating passes through exactly", func() {
				So(b.Blend(1234, 1900, 0, 100), ShouldEqual, 1234)
			})

			Convey("And out-of-band existing ratings are clamped", func() {
				So(b.Blend(500, 500, 0, 100), ShouldEqual, 1000)
				So(b.Blend(2500, 2500, 0, 100), ShouldEqual, 2000)
			})
		})

		Convey("When the match count reaches the maximum", func() {
			full := b.Blend(1000, 2000, 100, 100)

			Convey("Then the positional weight caps at 0.8", func() {
				So(full, ShouldAlmostEqual, 1800, 1e-9)
			})

			Convey("And counts beyond the maximum change nothing", func() {
				So(b.Blend(1000, 2000, 250, 100), ShouldAlmostEqual, full, 1e-9)
				So(b.Blend(1000, 2000, 1_000_000, 100), ShouldAlmostEqual, full, 1e-9)
			})
		})

		Convey("When matches are partially played", func() {
			Convey("Then the positional influence grows with the count", func() {
				quarter := b.Blend(1000, 2000, 25, 100)
				half := b.Blend(1000, 2000, 50, 100)
				So(quarter, ShouldAlmostEqual, 1000+0.225*1000, 1e-9)
				So(half, ShouldBeGreaterThan, quarter)
			})
		})

		Convey("When maxMatches is zero or negative", func() {
			Convey("Then it degrades to the zero-match identity", func() {
				So(b.Blend(1600, 1100, 40, 0), ShouldEqual, 1600)
				So(b.Blend(1600, 1100, 40, -3), ShouldEqual, 1600)
			})
		})

		Convey("When the match count is negative", func() {
			Convey("Then it is clamped to zero", func() {
				So(b.Blend(1500, 1900, -5, 100), ShouldEqual, 1500)
			})
		})
	})

	Convey("Given custom bounds", t, func() {
		b := blend.NewBlender(blend.WithBounds(0, 100))

		Convey("Then blending clamps to them", func() {
			So(b.Blend(-50, -50, 0, 10), ShouldEqual, 0)
			So(b.Blend(400, 400, 0, 10), ShouldEqual, 100)
		})
	})
}

func TestPositionalRating(t *testing.T) {
	Convey("Given a default blender", t, func() {
		b := blend.NewBlender()

		Convey("When mapping positions of a four-name field", func() {
			Convey("Then first place takes the top of the band", func() {
				So(b.PositionalRating(0, 4), ShouldAlmostEqual, 2000, 1e-9)
			})

			Convey("And last place takes the bottom", func() {
				So(b.PositionalRating(3, 4), ShouldAlmostEqual, 1000, 1e-9)
			})

			Convey("And the middle spreads linearly", func() {
				So(b.PositionalRating(1, 4), ShouldAlmostEqual, 2000-1000.0/3, 1e-9)
			})
		})

		Convey("When the field has a single name", func() {
			Convey("Then it maps to the middle of the band", func() {
				So(b.PositionalRating(0, 1), ShouldAlmostEqual, 1500, 1e-9)
			})
		})

		Convey("When positions run outside the field", func() {
			Convey("Then they are clamped to the band", func() {
				So(b.PositionalRating(-2, 4), ShouldAlmostEqual, 2000, 1e-9)
				So(b.PositionalRating(9, 4), ShouldAlmostEqual, 1000, 1e-9)
			})
		})
	})
}
