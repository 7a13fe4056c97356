/*
Package bt is a small tick-driven behavior tree evaluator.

A tree is assembled once from composites and leaves:

	root := bt.NewSelector(
		bt.If(hasTarget,
			bt.NewAction(resetIdle),
			bt.NewAction(plunder),
		),
		bt.NewAction(wander),
		bt.NewAction(idle),
	)

and then ticked once per scheduling interval by its owner:

	r := root.Tick()

Evaluation is synchronous, depth-first and left to right. Running is only a
return value: the call fully unwinds and the owner ticks the same tree again
on the next interval. Composites keep no memory of the previous tick, so a
Selector whose second child was Running re-evaluates its first child before
reaching it again.

Trees are not safe for concurrent ticking.
*/
package bt
