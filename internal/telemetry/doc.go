// Package telemetry tracks the progress of an export run.
//
// A Tracker owns the run's ProgressInfo and serializes every update behind
// narrow setters, so the frame producer, frame writer, and encoder monitor can
// report concurrently without read-modify-write races. UpdateTiming derives
// percent, throughput, and ETA from the frame counters and wall clock; the
// export controller calls it on a fixed ticker and publishes the resulting
// snapshot to observers.
package telemetry
