package forward

// refCounted owns an OS resource that exists while at least one reference is
// held. The first Acquire creates it and the last Release destroys it.
type refCounted struct {
	refs    int
	create  func() error
	destroy func() error
}

func (r *refCounted) Acquire() error {
	if r.refs == 0 {
		if err := r.create(); err != nil {
			return err
		}
	}
	r.refs++
	return nil
}

// Release drops one reference. The count reaches zero even when destroy
// fails, since the resource cannot be recovered by retrying.
func (r *refCounted) Release() error {
	if r.refs == 0 {
		return nil
	}
	r.refs--
	if r.refs == 0 {
		return r.destroy()
	}
	return nil
}

func (r *refCounted) Held() bool {
	return r.refs > 0
}
