package responder

import (
	"testing"

	"golang.org/x/exp/slices"

	"ja-rule-go/types"
)

func TestBuildTableIsSortedByPID(t *testing.T) {
	def := &types.ResponderDefinition{
		SoftwareVersionLabel: "v1",
		ManufacturerLabel:    "Ja Rule",
		ModelDescription:     "test model",
	}
	r := &types.Responder{}
	extra := []types.PIDDescriptor{
		{PID: 0x8050},
		{PID: 0x0001},
		{PID: 0x8010},
	}

	table := BuildTable(def, r, extra)

	if !slices.IsSortedFunc(table, func(a, b types.PIDDescriptor) int { return int(a.PID) - int(b.PID) }) {
		var pids []uint16
		for _, d := range table {
			pids = append(pids, d.PID)
		}
		t.Fatalf("table not sorted by PID: %v", pids)
	}
}
