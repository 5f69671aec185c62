package sm

import (
	"testing"

	"iolinke.dev/dl/mode"
)

type fakeCapability struct {
	enabled bool
	calls   int
}

func (c *fakeCapability) SetEnabled(enabled bool) {
	c.enabled = enabled
	c.calls++
}

func TestFanOutByMode(t *testing.T) {
	od, pd, isdu, ev := &fakeCapability{}, &fakeCapability{}, &fakeCapability{}, &fakeCapability{}
	h := &Handler{OD: od, PD: pd, ISDU: isdu, Event: ev}

	h.DlModeInd(mode.Startup)
	if !od.enabled || pd.enabled || isdu.enabled || ev.enabled {
		t.Fatalf("Startup: od=%v pd=%v isdu=%v ev=%v", od.enabled, pd.enabled, isdu.enabled, ev.enabled)
	}

	h.DlModeInd(mode.PreOperate)
	if !od.enabled || pd.enabled || !isdu.enabled || !ev.enabled {
		t.Fatalf("PreOperate: od=%v pd=%v isdu=%v ev=%v", od.enabled, pd.enabled, isdu.enabled, ev.enabled)
	}

	h.DlModeInd(mode.Operate)
	if !od.enabled || !pd.enabled || !isdu.enabled || !ev.enabled {
		t.Fatalf("Operate: od=%v pd=%v isdu=%v ev=%v", od.enabled, pd.enabled, isdu.enabled, ev.enabled)
	}

	h.DlModeInd(mode.ComLost)
	if od.enabled || pd.enabled || isdu.enabled || ev.enabled {
		t.Fatalf("ComLost: od=%v pd=%v isdu=%v ev=%v", od.enabled, pd.enabled, isdu.enabled, ev.enabled)
	}
}

func TestNilCapabilitiesAreSkipped(t *testing.T) {
	h := &Handler{}
	// Must not panic when no sub-handlers are wired.
	h.DlModeInd(mode.Operate)
}
