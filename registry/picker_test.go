package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundRobinPickerCycles(t *testing.T) {
	instances := []Instance{
		{Addr: "10.0.0.1:18812", Version: "1"},
		{Addr: "10.0.0.2:18812", Version: "1"},
		{Addr: "10.0.0.3:18812", Version: "1"},
	}
	p := &RoundRobinPicker{}

	seen := make(map[string]int)
	for i := 0; i < 9; i++ {
		inst, err := p.Pick(instances)
		require.NoError(t, err)
		seen[inst.Addr]++
	}
	for _, inst := range instances {
		assert.Equal(t, 3, seen[inst.Addr])
	}
}

func TestRoundRobinPickerEmpty(t *testing.T) {
	p := &RoundRobinPicker{}
	_, err := p.Pick(nil)
	assert.Error(t, err)
}
