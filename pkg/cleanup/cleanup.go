// Package cleanup collects teardown jobs from long-lived components
// (connection pools, producers) and runs them at process exit.
package cleanup

import (
	"log"
	"sync"
)

type Job struct {
	Name string
	F    func() error
}

var (
	mu   sync.Mutex
	jobs []*Job
)

func Register(j *Job) {
	mu.Lock()
	jobs = append(jobs, j)
	mu.Unlock()
}

// CleanUp runs registered jobs in reverse registration order, so
// components shut down before the stores they write to.
func CleanUp() {
	mu.Lock()
	defer mu.Unlock()
	for i := len(jobs) - 1; i >= 0; i-- {
		j := jobs[i]
		if err := j.F(); err != nil {
			log.Printf("cleanup job %s failed: %v", j.Name, err)
			continue
		}
		log.Printf("cleanup job %s done", j.Name)
	}
	jobs = nil
}
