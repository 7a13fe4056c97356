// Package gobt bridges engine nodes and go-behaviortree nodes.
//
// The engine has no error channel, so a go-behaviortree error reaching an
// engine callable collapses to Failure. In the other direction engine
// results never carry an error.
package gobt

import (
	behaviortree "github.com/joeycumines/go-behaviortree"

	"github.com/zeusync/tickai/internal/core/bt"
)

// ToStatus maps an engine result onto a go-behaviortree status.
func ToStatus(r bt.Result) behaviortree.Status {
	switch r {
	case bt.Success:
		return behaviortree.Success
	case bt.Running:
		return behaviortree.Running
	default:
		return behaviortree.Failure
	}
}

// FromStatus maps a go-behaviortree status onto an engine result. Unknown
// statuses are Failure.
func FromStatus(s behaviortree.Status) bt.Result {
	switch s {
	case behaviortree.Success:
		return bt.Success
	case behaviortree.Running:
		return bt.Running
	default:
		return bt.Failure
	}
}

// Wrap exposes an engine node as a go-behaviortree leaf. Every tick of the
// returned node ticks n exactly once.
func Wrap(n bt.Node) behaviortree.Node {
	return behaviortree.New(func([]behaviortree.Node) (behaviortree.Status, error) {
		if n == nil {
			return behaviortree.Failure, nil
		}
		return ToStatus(n.Tick()), nil
	})
}

// Action adapts a go-behaviortree node into an engine callable.
func Action(n behaviortree.Node) bt.ActionFunc {
	return func() bt.Result {
		if n == nil {
			return bt.Failure
		}
		status, err := n.Tick()
		if err != nil {
			return bt.Failure
		}
		return FromStatus(status)
	}
}
