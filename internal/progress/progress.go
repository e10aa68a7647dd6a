// Package progress tracks in-flight fetch and compile units and reports fractional completion
// to a single subscribed handler.
package progress

import "sync"

// Update is one progress notification.
type Update struct {
	// Done is true when no unit of work remains open.
	Done      bool
	Completed uint
	Total     uint
	Label     string
}

// Handler receives progress updates.
type Handler func(Update)

// Reporter holds the progress counters for one invocation. It supports exactly one
// subscriber; subscribing again replaces the previous handler.
type Reporter struct {
	mu        sync.Mutex
	handler   Handler
	completed uint
	total     uint
	nextJob   uint64
	running   []*Job
}

// New creates a Reporter with no subscriber.
func New() *Reporter {
	return &Reporter{}
}

// Subscribe installs h as the sole handler.
func (r *Reporter) Subscribe(h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handler = h
}

// Report forwards u to the subscribed handler. Callers are trusted to keep
// Completed <= Total.
func (r *Reporter) Report(u Update) {
	r.mu.Lock()
	h := r.handler
	r.mu.Unlock()
	if h != nil {
		h(u)
	}
}

// Counts returns the current completed and total job counters.
func (r *Reporter) Counts() (completed, total uint) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.completed, r.total
}

// Add opens a new job and reports a non-terminal update carrying its label.
func (r *Reporter) Add(label string) *Job {
	r.mu.Lock()
	r.nextJob++
	job := &Job{id: r.nextJob, label: label, reporter: r}
	r.total++
	r.running = append(r.running, job)
	u := Update{Completed: r.completed, Total: r.total, Label: label}
	r.mu.Unlock()

	r.Report(u)
	return job
}

func (r *Reporter) complete(job *Job) {
	r.mu.Lock()
	idx := -1
	for i, j := range r.running {
		if j.id == job.id {
			idx = i
			break
		}
	}
	if idx < 0 {
		r.mu.Unlock()
		return
	}
	r.running = append(r.running[:idx], r.running[idx+1:]...)
	r.completed++

	u := Update{
		Done:      len(r.running) == 0,
		Completed: r.completed,
		Total:     r.total,
	}
	if !u.Done {
		u.Label = r.running[len(r.running)-1].label
	}
	r.mu.Unlock()

	r.Report(u)
}

// Job is one open unit of work.
type Job struct {
	id       uint64
	label    string
	reporter *Reporter
	once     sync.Once
}

// Done closes the job. Calling it more than once has no further effect.
func (j *Job) Done() {
	j.once.Do(func() { j.reporter.complete(j) })
}
