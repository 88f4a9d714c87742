package calibration

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToComponent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		give string
		want DeviceComponent
	}{
		{give: "Q0", want: Qubit(0)},
		{give: "Q12", want: Qubit(12)},
		{give: "R3", want: Resonator(3)},
		{give: "Q", want: UnknownComponent("Q")},
		{give: "R-1", want: UnknownComponent("R-1")},
		{give: "coupler", want: UnknownComponent("coupler")},
	}

	for _, tt := range tests {
		t.Run(tt.give, func(t *testing.T) {
			t.Parallel()

			got := ToComponent(tt.give)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.give, got.String())
		})
	}
}
