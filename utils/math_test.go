package utils

import (
	"testing"

	"go.viam.com/test"
)

func TestMathHelpers(t *testing.T) {
	test.That(t, Float64AlmostEqual(1.0, 1.0+1e-8, 1e-7), test.ShouldBeTrue)
	test.That(t, Float64AlmostEqual(1.0, 1.1, 1e-7), test.ShouldBeFalse)

	test.That(t, Square(3), test.ShouldEqual, 9)
	test.That(t, Square(-0.5), test.ShouldEqual, 0.25)

	test.That(t, MinInt(2, 5), test.ShouldEqual, 2)
	test.That(t, MinInt(5, 2), test.ShouldEqual, 2)
}
