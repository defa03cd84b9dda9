package inference

// deferred queues mutations found while walking query results, so they run
// only after the walk is over.
type deferred struct {
	ops []func() error
}

func (d *deferred) add(op func() error) {
	d.ops = append(d.ops, op)
}

// apply runs the queued operations in order and clears the queue. It stops
// at the first error.
func (d *deferred) apply() error {
	ops := d.ops
	d.ops = nil
	for _, op := range ops {
		if err := op(); err != nil {
			return err
		}
	}
	return nil
}

