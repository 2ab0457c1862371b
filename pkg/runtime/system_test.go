package runtime

import (
	"sync"
	"testing"

	"github.com/strata-xr/strata-go/pkg/api"
	"github.com/strata-xr/strata-go/pkg/driver/simulated"
)

// Readers of the role snapshot never block and must always observe a
// complete snapshot, so the generation a reader sees can only move
// forward while refreshes swap the cache underneath.
func TestRoleSnapshotConsistentUnderRefresh(t *testing.T) {
	inst, sim := newTestInstance(t)
	sys, err := inst.System(api.FormFactorHeadMounted)
	if err != nil {
		t.Fatalf("System: %v", err)
	}

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		var prev uint64
		for {
			select {
			case <-done:
				return
			default:
			}
			r := sys.roles()
			if r.Generation < prev {
				t.Errorf("generation went backwards, %d after %d", r.Generation, prev)
				return
			}
			prev = r.Generation
		}
	}()

	for i := 0; i < 200; i++ {
		sim.AssignLeft(simulated.NewDevice("left sim", "/interaction_profiles/khr/simple_controller"))
		sys.refreshRoles()
	}
	close(done)
	wg.Wait()
}
