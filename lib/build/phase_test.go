// Copyright 2026 The NovelMind Authors
// SPDX-License-Identifier: Apache-2.0

package build

import (
	"math"
	"testing"
)

func TestTransition(t *testing.T) {
	cases := []struct {
		from Phase
		how  outcome
		want Phase
	}{
		{PhaseIdle, outcomeOK, PhasePreflight},
		{PhasePreflight, outcomeOK, PhaseCompile},
		{PhaseCompile, outcomeOK, PhaseIndex},
		{PhaseIndex, outcomeOK, PhasePack},
		{PhasePack, outcomeOK, PhaseBundle},
		{PhaseBundle, outcomeOK, PhaseVerify},
		{PhaseVerify, outcomeOK, PhasePromote},
		{PhasePromote, outcomeOK, PhaseDone},
		{PhaseCompile, outcomeFailed, PhaseFailed},
		{PhasePromote, outcomeFailed, PhaseFailed},
		{PhasePreflight, outcomeCancelled, PhaseCancelled},
		{PhasePack, outcomeCancelled, PhaseCancelled},
	}
	for _, tc := range cases {
		if got := transition(tc.from, tc.how); got != tc.want {
			t.Errorf("transition(%v, %d) = %v, want %v", tc.from, tc.how, got, tc.want)
		}
	}
}

func TestTerminalPhases(t *testing.T) {
	for phase := PhaseIdle; phase <= PhaseCancelled; phase++ {
		want := phase == PhaseDone || phase == PhaseFailed || phase == PhaseCancelled
		if got := phase.terminal(); got != want {
			t.Errorf("%v.terminal() = %v, want %v", phase, got, want)
		}
	}
}

func TestStageTable(t *testing.T) {
	total := 0.0
	for _, spec := range stages {
		total += spec.weight
		if got := stageFor(spec.phase); got.name != spec.name {
			t.Errorf("stageFor(%v) = %q, want %q", spec.phase, got.name, spec.name)
		}
	}
	if math.Abs(total-1.0) > 1e-9 {
		t.Errorf("stage weights sum to %g, want 1.0", total)
	}
}
