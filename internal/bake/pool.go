package bake

import (
	"sync"
)

// vertexTask is a contiguous range of one mesh's vertices.
type vertexTask struct {
	Mesh  int
	Start int
	End   int
}

// passStats counts what a pass did.
type passStats struct {
	Occluded int // samples blocked by geometry
	Traced   int // occluded samples whose hit contributed transport
	Skipped  int // hits between unsupported material pairs
}

func (s *passStats) add(o passStats) {
	s.Occluded += o.Occluded
	s.Traced += o.Traced
	s.Skipped += o.Skipped
}

// workerPool runs vertex tasks on a fixed number of goroutines.
type workerPool struct {
	taskQueue   chan vertexTask
	resultQueue chan passStats
	numWorkers  int
	work        func(vertexTask) passStats
	wg          sync.WaitGroup
}

func newWorkerPool(numWorkers, maxTasks int, work func(vertexTask) passStats) *workerPool {
	if numWorkers <= 0 {
		numWorkers = DefaultWorkers()
	}
	return &workerPool{
		taskQueue:   make(chan vertexTask, maxTasks),
		resultQueue: make(chan passStats, maxTasks),
		numWorkers:  numWorkers,
		work:        work,
	}
}

func (wp *workerPool) start() {
	for i := 0; i < wp.numWorkers; i++ {
		wp.wg.Add(1)
		go wp.run()
	}
}

func (wp *workerPool) submit(task vertexTask) {
	wp.taskQueue <- task
}

// stop waits for all submitted tasks and closes the result queue.
func (wp *workerPool) stop() {
	close(wp.taskQueue)
	wp.wg.Wait()
	close(wp.resultQueue)
}

func (wp *workerPool) run() {
	defer wp.wg.Done()
	for task := range wp.taskQueue {
		wp.resultQueue <- wp.work(task)
	}
}

// runPass executes every task and returns once all have finished.
func runPass(numWorkers int, tasks []vertexTask, work func(vertexTask) passStats) passStats {
	wp := newWorkerPool(numWorkers, len(tasks), work)
	wp.start()
	for _, task := range tasks {
		wp.submit(task)
	}
	wp.stop()

	var total passStats
	for s := range wp.resultQueue {
		total.add(s)
	}
	return total
}

// splitVertices chunks every mesh's vertices into tasks of at most
// chunkSize vertices.
func splitVertices(vertexCounts []int, chunkSize int) []vertexTask {
	var tasks []vertexTask
	for mesh, n := range vertexCounts {
		for start := 0; start < n; start += chunkSize {
			tasks = append(tasks, vertexTask{Mesh: mesh, Start: start, End: min(start+chunkSize, n)})
		}
	}
	return tasks
}
