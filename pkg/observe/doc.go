// Package observe tracks which store data a computation reads and which data
// changes over time.
//
// # Dependency Collection
//
// [Observer.StartCollectDep] returns a [Watcher] that records every node read
// (Get, Has, Keys, Len) until [Observer.StopCollectDep]. Collections nest; an
// inner collection pauses the outer one. Enumerating keys records
// store.AllKeys, which matches any write on that node.
//
// [Watcher.StartWatch] then calls back on writes that touch the recorded
// dependencies.
//
// # Mutation Gathering
//
// [Observer.StartGatherMutation] folds every write into a [Diff] that keeps,
// per node and key, the state before the first write and after the last.
// Keys that end where they started disappear from the diff, so:
//
//	obs.StartGatherMutation()
//	_ = x.Set("a", 1)
//	_ = x.Set("a", 2)
//	diff := obs.StopGatherMutation() // diff[x]["a"]: old value, new value 2
//
// Listeners registered with [Observer.OnMutationCollected] are notified once
// per burst of writes, through the configured [Scheduler]. Stopping before
// the scheduler runs drops the notification.
package observe
