// Package scheduler provides RunLoop, a cooperative deferred-task queue
// organized into named passes.
//
// Work is enqueued with Schedule, which always appends, or ScheduleOnce,
// which collapses repeated requests for the same Key into one task that runs
// with the most recently supplied function. Flush drains the passes in
// order, returning to the earliest pass whenever a task schedules work into
// it:
//
//	loop := scheduler.NewRunLoop()
//	loop.ScheduleOnce(scheduler.PassRender, scheduler.Key{Target: v, Op: "render"}, render)
//	if err := loop.Flush(); err != nil {
//	    return err
//	}
//
// RunLoop is safe to schedule into from any goroutine, but tasks always run
// on the goroutine that calls Flush.
package scheduler
