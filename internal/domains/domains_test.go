package domains

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/operator-framework/fsplan/pkg/fsplan"
)

func TestGenerators(t *testing.T) {
	type tc struct {
		Name      string
		Build     func() (*fsplan.Problem, error)
		Variables int
		Atoms     int
		Actions   int
		Error     string
	}

	for _, tt := range []tc{
		{
			Name:      "toy",
			Build:     func() (*fsplan.Problem, error) { return Toy(), nil },
			Variables: 3,
			Atoms:     6,
			Actions:   2,
		},
		{
			Name:      "hanoi",
			Build:     func() (*fsplan.Problem, error) { return Hanoi(4) },
			Variables: 4,
			Atoms:     4 * Pegs,
			Actions:   4 * Pegs * (Pegs - 1),
		},
		{
			Name:      "gripper",
			Build:     func() (*fsplan.Problem, error) { return Gripper(2) },
			Variables: 5,
			Atoms:     6 + 2*4,
			Actions:   2 + 2*8,
		},
		{
			Name:  "hanoi without disks",
			Build: func() (*fsplan.Problem, error) { return Hanoi(0) },
			Error: "invalid number of disks: 0",
		},
		{
			Name:  "gripper without balls",
			Build: func() (*fsplan.Problem, error) { return Gripper(-1) },
			Error: "invalid number of balls: -1",
		},
	} {
		t.Run(tt.Name, func(t *testing.T) {
			p, err := tt.Build()
			if tt.Error != "" {
				assert.EqualError(t, err, tt.Error)
				return
			}
			require.NoError(t, err)
			require.NoError(t, p.Validate())
			assert.Equal(t, tt.Variables, p.Index.NumVariables())
			assert.Equal(t, tt.Atoms, p.Index.Size())
			assert.Equal(t, tt.Actions, p.Actions.NumActions())
			assert.False(t, p.Goal.IsGoal(p.Init))
		})
	}
}

func TestDeadEndHasNoApplicableAction(t *testing.T) {
	p := DeadEnd()
	assert.Empty(t, p.Actions.Applicable(p.Init, nil))
}
