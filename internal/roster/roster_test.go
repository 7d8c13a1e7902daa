// LANWatch - Network Monitoring Ingestion and State Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lanwatch

package roster

import (
	"reflect"
	"testing"
	"time"

	"pgregory.net/rapid"

	"github.com/tomtom215/lanwatch/internal/models"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func rec(id string) models.DeviceRecord {
	return models.DeviceRecord{ID: id, Name: "host-" + id, Type: models.DeviceTypeLaptop}
}

func TestJoin_InsertsActiveAtHead(t *testing.T) {
	r := New()
	if !r.Join(rec("a"), t0) {
		t.Fatal("Join(a) = false, want true")
	}
	r.Join(rec("b"), t0.Add(time.Second))

	devs := r.Devices()
	if len(devs) != 2 || devs[0].ID != "b" || devs[1].ID != "a" {
		t.Fatalf("Devices() order = %v, want [b a]", ids(devs))
	}
	if devs[1].Status != models.StatusActive || !devs[1].LastSeen.Equal(t0) || !devs[1].FirstSeen.Equal(t0) {
		t.Errorf("joined device = %+v", devs[1])
	}
}

func TestJoin_DuplicateIsNoop(t *testing.T) {
	r := New()
	r.Join(rec("a"), t0)
	r.Leave("a", t0.Add(time.Minute))
	before, _ := r.Get("a")

	dup := rec("a")
	dup.Name = "renamed"
	if r.Join(dup, t0.Add(2*time.Minute)) {
		t.Fatal("duplicate Join returned true")
	}
	after, _ := r.Get("a")
	if after != before {
		t.Errorf("duplicate Join changed device: %+v -> %+v", before, after)
	}
	if r.Len() != 1 {
		t.Errorf("Len() = %d, want 1", r.Len())
	}
}

func TestLeave(t *testing.T) {
	r := New()
	r.Join(rec("a"), t0)

	if !r.Leave("a", t0.Add(time.Minute)) {
		t.Fatal("Leave(a) = false")
	}
	d, _ := r.Get("a")
	if d.Status != models.StatusIdle || !d.LastSeen.Equal(t0.Add(time.Minute)) {
		t.Errorf("after Leave: %+v", d)
	}
	if !d.FirstSeen.Equal(t0) {
		t.Errorf("FirstSeen moved: %v", d.FirstSeen)
	}

	if r.Leave("ghost", t0) {
		t.Error("Leave(ghost) = true, want false")
	}
	if _, ok := r.Get("ghost"); ok {
		t.Error("Leave created a phantom device")
	}
}

func TestCounts(t *testing.T) {
	r := New()
	r.Join(rec("a"), t0)
	r.Join(rec("b"), t0)
	r.Join(rec("c"), t0)
	r.Leave("b", t0)

	active, idle := r.Counts()
	if active != 2 || idle != 1 {
		t.Errorf("Counts() = %d, %d; want 2, 1", active, idle)
	}
}

func TestSortForDisplay_StableByStatus(t *testing.T) {
	devs := []models.Device{
		{ID: "1", Status: models.StatusIdle},
		{ID: "2", Status: models.StatusActive},
		{ID: "3", Status: models.StatusIdle},
		{ID: "4", Status: models.StatusActive},
	}
	SortForDisplay(devs)
	if got := ids(devs); !reflect.DeepEqual(got, []string{"2", "4", "1", "3"}) {
		t.Errorf("SortForDisplay() = %v, want [2 4 1 3]", got)
	}
}

// TestRoster_Properties checks the roster invariants over random JOIN/LEFT
// sequences against a simple model.
func TestRoster_Properties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		r := New()
		model := map[string]models.DeviceStatus{}
		idGen := rapid.SampledFrom([]string{"a", "b", "c", "d", "e"})

		steps := rapid.IntRange(1, 100).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			id := idGen.Draw(t, "id")
			now := t0.Add(time.Duration(i) * time.Second)

			if rapid.Bool().Draw(t, "join") {
				_, existed := model[id]
				if inserted := r.Join(rec(id), now); inserted == existed {
					t.Fatalf("Join(%s) inserted=%v but existed=%v", id, inserted, existed)
				}
				if !existed {
					model[id] = models.StatusActive
				}
			} else {
				sizeBefore := r.Len()
				_, existed := model[id]
				if found := r.Leave(id, now); found != existed {
					t.Fatalf("Leave(%s) found=%v but existed=%v", id, found, existed)
				}
				if existed {
					model[id] = models.StatusIdle
				} else if r.Len() != sizeBefore {
					t.Fatalf("Leave of unknown %s changed size", id)
				}
			}

			if r.Len() != len(model) {
				t.Fatalf("Len() = %d, model has %d", r.Len(), len(model))
			}
			seen := map[string]bool{}
			for _, d := range r.Devices() {
				if seen[d.ID] {
					t.Fatalf("duplicate device %s", d.ID)
				}
				seen[d.ID] = true
				if d.Status != model[d.ID] {
					t.Fatalf("device %s status %s, model %s", d.ID, d.Status, model[d.ID])
				}
			}
		}
	})
}

func ids(devs []models.Device) []string {
	out := make([]string, len(devs))
	for i := range devs {
		out[i] = devs[i].ID
	}
	return out
}
