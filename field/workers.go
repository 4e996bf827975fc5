package field

import "sync"

// rowPool runs the CPU stencil on persistent goroutines. Each worker owns a
// fixed set of rows; run releases all of them and waits for every row to be
// written before returning, so a Step stays synchronous.
type rowPool struct {
	mu      sync.Mutex
	cond    *sync.Cond
	grid    *Grid
	rows    [][]int
	counts  []int
	st      *stencil
	step    int
	pending int
	closed  bool
	done    sync.WaitGroup
}

// assignRows distributes grid rows across workers in round robin fashion.
func assignRows(workerCount, n int) [][]int {
	if workerCount < 1 {
		workerCount = 1
	}
	rows := make([][]int, workerCount)
	for i := 0; i < n; i++ {
		w := i % workerCount
		rows[w] = append(rows[w], i)
	}
	return rows
}

// newRowPool launches workerCount goroutines stepping g.
func newRowPool(g *Grid, workerCount int) *rowPool {
	p := &rowPool{
		grid: g,
		rows: assignRows(workerCount, g.n),
	}
	p.counts = make([]int, len(p.rows))
	p.cond = sync.NewCond(&p.mu)
	p.done.Add(len(p.rows))
	for i := range p.rows {
		go p.loop(i)
	}
	return p
}

func (p *rowPool) loop(index int) {
	defer p.done.Done()
	lastStep := 0
	p.mu.Lock()
	for {
		for p.step == lastStep && !p.closed {
			p.cond.Wait()
		}
		if p.closed {
			p.mu.Unlock()
			return
		}
		lastStep = p.step
		st := p.st
		rows := p.rows[index]
		p.mu.Unlock()

		count := 0
		for _, i := range rows {
			count += st.stepRow(p.grid, i)
		}

		p.mu.Lock()
		p.counts[index] = count
		p.pending--
		if p.pending == 0 {
			p.cond.Broadcast()
		}
	}
}

// run executes one tick across all workers and returns the collapsed count.
func (p *rowPool) run(st *stencil) int {
	p.mu.Lock()
	p.st = st
	p.pending = len(p.rows)
	p.step++
	p.cond.Broadcast()
	for p.pending > 0 {
		p.cond.Wait()
	}
	total := 0
	for _, c := range p.counts {
		total += c
	}
	p.mu.Unlock()
	return total
}

// close stops the workers and waits for them to exit.
func (p *rowPool) close() {
	p.mu.Lock()
	p.closed = true
	p.cond.Broadcast()
	p.mu.Unlock()
	p.done.Wait()
}
