// Copyright 2026 The NovelMind Authors
// SPDX-License-Identifier: Apache-2.0

package build

// Phase identifies where a build is in its lifecycle. The pipeline
// moves strictly forward through the stage phases; Done, Failed, and
// Cancelled are terminal.
type Phase uint8

const (
	PhaseIdle Phase = iota
	PhasePreflight
	PhaseCompile
	PhaseIndex
	PhasePack
	PhaseBundle
	PhaseVerify
	PhasePromote
	PhaseDone
	PhaseFailed
	PhaseCancelled
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "Idle"
	case PhasePreflight:
		return "Preflight"
	case PhaseCompile:
		return "Compile"
	case PhaseIndex:
		return "Index"
	case PhasePack:
		return "Pack"
	case PhaseBundle:
		return "Bundle"
	case PhaseVerify:
		return "Verify"
	case PhasePromote:
		return "Promote"
	case PhaseDone:
		return "Done"
	case PhaseFailed:
		return "Failed"
	case PhaseCancelled:
		return "Cancelled"
	default:
		return "Unknown"
	}
}

// terminal reports whether no further transition is possible.
func (p Phase) terminal() bool {
	return p == PhaseDone || p == PhaseFailed || p == PhaseCancelled
}

// outcome is how the current phase ended.
type outcome uint8

const (
	outcomeOK outcome = iota
	outcomeFailed
	outcomeCancelled
)

// transition is the only place build phases advance. Failure and
// cancellation preempt from any phase; success walks the stage order.
func transition(from Phase, how outcome) Phase {
	switch how {
	case outcomeFailed:
		return PhaseFailed
	case outcomeCancelled:
		return PhaseCancelled
	}
	switch from {
	case PhaseIdle:
		return PhasePreflight
	case PhasePreflight:
		return PhaseCompile
	case PhaseCompile:
		return PhaseIndex
	case PhaseIndex:
		return PhasePack
	case PhasePack:
		return PhaseBundle
	case PhaseBundle:
		return PhaseVerify
	case PhaseVerify:
		return PhasePromote
	case PhasePromote:
		return PhaseDone
	default:
		return from
	}
}

// stageSpec describes one weighted pipeline stage. The weights sum to
// 1.0 and drive the overall progress fraction.
type stageSpec struct {
	phase       Phase
	name        string
	description string
	weight      float64
	run         func(*run) error
}

var stages = [...]stageSpec{
	{PhasePreflight, "Preflight", "Validating project and preparing output", 0.05, (*run).preflight},
	{PhaseCompile, "Compile", "Compiling NMScript files", 0.15, (*run).compile},
	{PhaseIndex, "Index", "Processing and indexing assets", 0.10, (*run).indexAssets},
	{PhasePack, "Pack", "Creating resource packs", 0.35, (*run).pack},
	{PhaseBundle, "Bundle", "Creating runtime bundle", 0.25, (*run).bundle},
	{PhaseVerify, "Verify", "Verifying and finalizing build", 0.10, (*run).verify},
}

// stageFor maps a stage phase to its table entry. Only valid for the
// six stage phases.
func stageFor(p Phase) stageSpec {
	return stages[int(p-PhasePreflight)]
}
