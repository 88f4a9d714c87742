package pulse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustPulse(t *testing.T, shape Shape, name string, operands ...Expr) Pulse {
	t.Helper()
	p, err := NewPulse(shape, name, operands...)
	require.NoError(t, err)

	return p
}

// xTemplate is a single qubit DRAG pulse with all operands left free.
func xTemplate(t *testing.T) *ScheduleBlock {
	t.Helper()
	p := mustPulse(t, Drag, "xp",
		Param("duration"), Param("amp"), Param("σ"), Param("β"), Param("angle"))

	return NewScheduleBlock("x", AlignLeft, Play(p, Drive(Param("ch0"))))
}

func TestNewPulse(t *testing.T) {
	t.Parallel()

	_, err := NewPulse(Gaussian, "g", Param("duration"), Param("amp"))
	require.ErrorContains(t, err, "takes 4 operands")

	_, err = NewPulse(Shape("Sech"), "s")
	require.ErrorContains(t, err, "unknown pulse shape")

	p := mustPulse(t, Constant, "c", Const(Int(100)), Const(Float(0.1)), Const(Float(0)))
	require.NoError(t, p.Validate())
	assert.Equal(t, []string{"duration", "amp", "angle"}, Constant.Slots())

	delete(p.Params, SlotAngle)
	require.ErrorContains(t, p.Validate(), `missing operand "angle"`)
}

func TestScheduleBlock_Parameters(t *testing.T) {
	t.Parallel()

	s := xTemplate(t)
	s.Append(ShiftPhase(Param("phase"), Drive(Param("ch0"))))

	assert.Equal(t, []string{"amp", "angle", "ch0", "duration", "phase", "β", "σ"}, s.Parameters())
	assert.Equal(t, []string{"ch0"}, s.ChannelParameters())
	assert.Equal(t, []string{"amp", "angle", "duration", "phase", "β", "σ"}, s.FreeParameters())
	assert.False(t, s.IsBound())
	require.NoError(t, s.Validate())
}

func TestScheduleBlock_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		give    func(t *testing.T) *ScheduleBlock
		wantErr string
	}{
		{
			name: "valid template",
			give: xTemplate,
		},
		{
			name: "no name",
			give: func(t *testing.T) *ScheduleBlock {
				t.Helper()
				s := xTemplate(t)
				s.Name = ""

				return s
			},
			wantErr: "schedule has no name",
		},
		{
			name: "unknown alignment",
			give: func(t *testing.T) *ScheduleBlock {
				t.Helper()
				s := xTemplate(t)
				s.Alignment = "diagonal"

				return s
			},
			wantErr: "unknown alignment",
		},
		{
			name: "channel index parameter breaks the convention",
			give: func(t *testing.T) *ScheduleBlock {
				t.Helper()
				return NewScheduleBlock("d", AlignLeft, Delay(Const(Int(16)), Drive(Param("qubit"))))
			},
			wantErr: "does not match the ch<i>(.<j>) convention",
		},
		{
			name: "channel name reused as operand",
			give: func(t *testing.T) *ScheduleBlock {
				t.Helper()
				return NewScheduleBlock("d", AlignLeft, Delay(Param("ch0"), Drive(Param("ch0"))))
			},
			wantErr: `uses channel parameter name "ch0"`,
		},
		{
			name: "reference without target",
			give: func(t *testing.T) *ScheduleBlock {
				t.Helper()
				return NewScheduleBlock("cr", AlignSequential, Ref(""))
			},
			wantErr: "has no target schedule",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.give(t).Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, ErrInvalidSchedule)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestScheduleBlock_Assign(t *testing.T) {
	t.Parallel()

	s := xTemplate(t)

	bound, err := s.Assign(map[string]Value{
		"ch0":      Int(3),
		"amp":      Float(0.5),
		"duration": Int(160),
		"unused":   Float(1),
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"angle", "β", "σ"}, bound.Parameters())
	assert.Equal(t, "d3", bound.Instructions[0].Channel.String())
	assert.True(t, bound.Instructions[0].Pulse.Params[SlotAmp].Value().Equals(Float(0.5)))

	// the template is left untouched
	assert.Equal(t, "d(ch0)", s.Instructions[0].Channel.String())
	assert.True(t, s.Instructions[0].Pulse.Params[SlotAmp].IsParameter())

	_, err = s.Assign(map[string]Value{"ch0": Float(0.5)})
	require.ErrorContains(t, err, "expected a non-negative integer")

	// integral floats are accepted as channel indices
	bound, err = s.Assign(map[string]Value{"ch0": Float(2)})
	require.NoError(t, err)
	assert.Equal(t, "d2", bound.Instructions[0].Channel.String())
}

func TestScheduleBlock_PulseFor(t *testing.T) {
	t.Parallel()

	s := xTemplate(t)

	p, ch, ok := s.PulseFor("amp")
	require.True(t, ok)
	assert.Equal(t, "xp", p.Name)
	assert.Equal(t, DriveChannel, ch.Kind)

	_, _, ok = s.PulseFor("amp_sx")
	assert.False(t, ok)
}

func TestScheduleBlock_CloneAndEquals(t *testing.T) {
	t.Parallel()

	s := xTemplate(t)
	s.Metadata["author"] = "cal-team"
	c := s.Clone()
	require.True(t, s.Equals(c))

	c.Instructions[0].Pulse.Params[SlotAmp] = Const(Float(0.1))
	assert.False(t, s.Equals(c))
	assert.True(t, s.Instructions[0].Pulse.Params[SlotAmp].IsParameter(), "clone must not share pulse operands")

	var nilBlock *ScheduleBlock
	assert.True(t, nilBlock.Equals(nil))
	assert.False(t, nilBlock.Equals(s))
}

func TestChannelSlots(t *testing.T) {
	t.Parallel()

	slots, err := ChannelSlots("ch0.1")
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, slots)

	_, err = ChannelSlots("chan0")
	require.Error(t, err)

	assert.True(t, IsChannelParameter("ch12"))
	assert.False(t, IsChannelParameter("ch"))
}

func TestScheduleBlock_References(t *testing.T) {
	t.Parallel()

	cr := NewScheduleBlock("cr", AlignSequential,
		Ref("x", 0),
		Play(mustPulse(t, GaussianSquare, "cr90p",
			Param("duration"), Param("amp"), Param("σ"), Param("width"), Param("angle")),
			Control(Param("ch0.1"))),
		Ref("x", 0),
		Ref("sx", 1),
	)
	require.NoError(t, cr.Validate())
	assert.Equal(t, []string{"x", "sx"}, cr.References())
	assert.Equal(t, []string{"ch0.1"}, cr.ChannelParameters())
}

func TestFormat(t *testing.T) {
	t.Parallel()

	s := xTemplate(t)
	out := Format(s)

	assert.Contains(t, out, `ScheduleBlock(name="x", alignment=left)`)
	assert.Contains(t, out, "Play(Drag(duration=duration, amp=amp, sigma=σ, beta=β, angle=angle, name=\"xp\"), d(ch0))")
	assert.Equal(t, "ScheduleBlock(<nil>)", Format(nil))

	// the dump is not a payload
	_, err := Unmarshal([]byte(out))
	require.ErrorIs(t, err, ErrBadPayload)
}
