package domain

import "github.com/google/uuid"

// JobDispatch is the wire message placed on the generation queue.
// It intentionally carries no job payload: the worker re-reads the job
// record so that a reset or cancel issued after publish is observed.
type JobDispatch struct {
	JobID      uuid.UUID  `json:"job_id"`
	Capability Capability `json:"capability"`
	Epoch      int        `json:"epoch"`
}

// JobMessage wraps a dispatch received from the queue together with
// acknowledgement callbacks that the worker pool invokes after processing.
type JobMessage struct {
	Dispatch *JobDispatch
	Ack      func() error
	Nack     func(requeue bool) error
}
